package book

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidCursor = errors.New("invalid cursor")

type cursorData struct {
	AfterID string `json:"after_id,omitempty"`
}

// EncodeCursor returns an opaque token resuming after id, or "" for the zero id.
func EncodeCursor(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	raw, err := json.Marshal(cursorData{AfterID: id.Hex()})
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor. The empty cursor decodes to the zero id.
func DecodeCursor(cursor string) (primitive.ObjectID, error) {
	if cursor == "" {
		return primitive.NilObjectID, nil
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	var data cursorData
	if err := json.Unmarshal(raw, &data); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	id, err := primitive.ObjectIDFromHex(data.AfterID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	return id, nil
}
