package calculatematchingscores

import "matching-workers/internal/common/validation"

var inputSchema = validation.MustSchema(`{
	"type": "object",
	"required": ["projectId"],
	"properties": {
		"projectId": {"type": "string", "minLength": 1, "maxLength": 255},
		"profileId": {"type": ["string", "null"], "maxLength": 255}
	}
}`)
