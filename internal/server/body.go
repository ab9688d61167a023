package server

import (
	"encoding/json"
	"fmt"

	"github.com/participant-hub/participant-hub/internal/store"
)

// DecodeRecord 只接受 JSON 对象；空体、语法错误、数组/标量/null 都返回 ErrInvalidBody。
func DecodeRecord(body []byte) (store.Record, error) {
	if len(body) == 0 {
		return nil, ErrInvalidBody
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrInvalidBody, doc)
	}
	return store.Record(obj), nil
}
