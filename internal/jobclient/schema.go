package jobclient

import "github.com/joseph-ayodele/bookmap/constants"

// Response schemas for the job service. Extra properties are tolerated: the backend adds
// fields (raw_results, created_at) the client never reads.

func uploadSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"session_id": map[string]any{"type": "string", "minLength": 1},
			"message":    map[string]any{"type": "string"},
		},
		"required": []string{"session_id"},
	}
}

func statusSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":   map[string]any{"type": "string", "enum": constants.AllJobStatuses()},
			"progress": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"message":  map[string]any{"type": "string"},
		},
		"required": []string{"status", "progress"},
	}
}

func indexSchema() map[string]any {
	entry := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page":  map[string]any{"type": "integer", "minimum": 1},
			"title": map[string]any{"type": "string"},
		},
		"required": []string{"page", "title"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index":     map[string]any{"type": "array", "items": entry},
			"num_pages": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"index", "num_pages"},
	}
}

func healthSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":  map[string]any{"type": "string", "minLength": 1},
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"status"},
	}
}
