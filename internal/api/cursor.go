package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// cursorPayload is the opaque pagination token body. Clients treat the
// encoded form as a black box.
type cursorPayload struct {
	FindingID int64 `json:"finding_id"`
}

// encodeCursor wraps a finding id into an opaque base64 token.
func encodeCursor(findingID int64) string {
	data, _ := json.Marshal(cursorPayload{FindingID: findingID})
	return base64.StdEncoding.EncodeToString(data)
}

// decodeCursor unwraps a pagination token back into a finding id.
func decodeCursor(cursor string) (int64, error) {
	data, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: %w", err)
	}

	var payload cursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("parse cursor: %w", err)
	}
	if payload.FindingID <= 0 {
		return 0, fmt.Errorf("cursor missing finding_id")
	}
	return payload.FindingID, nil
}
