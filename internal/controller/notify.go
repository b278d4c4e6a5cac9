package controller

import "time"

type noticeTimings struct {
	errorDismiss   time.Duration
	successDismiss time.Duration
	fade           time.Duration
}

// notifier owns the two notice slots. A new notice in a slot restarts its dismiss timer.
type notifier struct {
	view    View
	sched   Scheduler
	timings noticeTimings
	timers  map[NoticeKind]Task
}

func newNotifier(view View, sched Scheduler, t noticeTimings) *notifier {
	return &notifier{view: view, sched: sched, timings: t, timers: map[NoticeKind]Task{}}
}

func (n *notifier) show(kind NoticeKind, message string) {
	n.cancel(kind)
	n.view.ShowNotice(kind, message)

	dismiss := n.timings.errorDismiss
	if kind == NoticeSuccess {
		dismiss = n.timings.successDismiss
	}
	n.timers[kind] = n.sched.After(dismiss, func() {
		n.view.FadeNotice(kind)
		n.timers[kind] = n.sched.After(n.timings.fade, func() {
			delete(n.timers, kind)
			n.view.HideNotice(kind)
		})
	})
}

func (n *notifier) cancel(kind NoticeKind) {
	if t, ok := n.timers[kind]; ok {
		t.Stop()
		delete(n.timers, kind)
	}
}

func (n *notifier) stopAll() {
	for kind := range n.timers {
		n.cancel(kind)
	}
}
