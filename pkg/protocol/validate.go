package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce   sync.Once
	requestSchema *jsonschema.Schema
	eventSchema   *jsonschema.Schema
	schemasErr    error
)

// loadSchemas 编译内嵌的 JSON Schema（只编译一次）
func loadSchemas() error {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range []string{"request.schema.json", "event.schema.json"} {
			data, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
				schemasErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}
		if requestSchema, schemasErr = compiler.Compile("request.schema.json"); schemasErr != nil {
			return
		}
		eventSchema, schemasErr = compiler.Compile("event.schema.json")
	})
	return schemasErr
}

// DecodeRequest 校验并解析客户端请求
//
// 返回:
//   - Request: 解析结果，keystroke 未指定 n 时补为 1
//   - error: JSON 格式错误或不符合 request.schema.json
func DecodeRequest(data []byte) (Request, error) {
	if err := loadSchemas(); err != nil {
		return Request{}, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := requestSchema.Validate(raw); err != nil {
		return Request{}, fmt.Errorf("invalid request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("invalid request: %w", err)
	}
	if req.Type == TypeKeystroke && req.N == 0 {
		req.N = 1
	}
	return req, nil
}

// ValidateEvent 校验发给客户端的事件
func ValidateEvent(ev Event) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return eventSchema.Validate(raw)
}
