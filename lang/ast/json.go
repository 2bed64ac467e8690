package ast

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts {"children": [...]}, where each child is a
// discriminated union on a "kind" field. This is the only front end this
// module ships: there is no textual grammar, so an App is always
// constructed either by a caller's own code or by decoding one of these
// documents (see internal/maincmd).
func (a *App) UnmarshalJSON(data []byte) error {
	var doc struct {
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	a.Children = make([]TopLevel, len(doc.Children))
	for i, raw := range doc.Children {
		tl, err := unmarshalTopLevel(raw)
		if err != nil {
			return fmt.Errorf("children[%d]: %w", i, err)
		}
		a.Children[i] = tl
	}
	return nil
}

func kindOf(raw json.RawMessage) (string, error) {
	var k struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &k); err != nil {
		return "", err
	}
	if k.Kind == "" {
		return "", fmt.Errorf("missing \"kind\"")
	}
	return k.Kind, nil
}

func unmarshalTopLevel(raw json.RawMessage) (TopLevel, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "external_function":
		var v struct {
			Name   string   `json:"name"`
			Params []string `json:"params"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &ExternalFunction{Name: v.Name, Params: v.Params}, nil

	case "global":
		var v struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		gv, err := unmarshalGlobalValue(v.Value)
		if err != nil {
			return nil, err
		}
		return &Global{Name: v.Name, Value: gv}, nil

	case "define_function":
		var v struct {
			Name     string            `json:"name"`
			Exported bool              `json:"exported"`
			Params   []string          `json:"params"`
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		children := make([]Expression, len(v.Children))
		for i, c := range v.Children {
			e, err := unmarshalExpression(c)
			if err != nil {
				return nil, fmt.Errorf("children[%d]: %w", i, err)
			}
			children[i] = e
		}
		return &DefineFunction{Name: v.Name, Exported: v.Exported, Params: v.Params, Children: children}, nil

	default:
		return nil, fmt.Errorf("unknown top-level kind %q", kind)
	}
}

func unmarshalGlobalValue(raw json.RawMessage) (GlobalValue, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "symbol":
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &Symbol{Name: v.Name}, nil

	case "number":
		var v struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &Number{Value: v.Value}, nil

	case "text":
		var v struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &Text{Value: v.Value}, nil

	case "data":
		var v struct {
			Values []json.RawMessage `json:"values"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		values := make([]GlobalValue, len(v.Values))
		for i, r := range v.Values {
			gv, err := unmarshalGlobalValue(r)
			if err != nil {
				return nil, fmt.Errorf("values[%d]: %w", i, err)
			}
			values[i] = gv
		}
		return &Data{Values: values}, nil

	case "struct":
		var v struct {
			Members []string `json:"members"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		members := make([]StructMember, len(v.Members))
		for i, m := range v.Members {
			members[i] = StructMember{Name: m}
		}
		return &Struct{Members: members}, nil

	case "identifier":
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &GlobalIdentifier{Name: v.Name}, nil

	default:
		return nil, fmt.Errorf("unknown global value kind %q", kind)
	}
}

func unmarshalExpression(raw json.RawMessage) (Expression, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "symbol":
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &SymbolLiteral{Name: v.Name}, nil

	case "number":
		var v struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &NumberLiteral{Value: v.Value}, nil

	case "text":
		var v struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &TextLiteral{Value: v.Value}, nil

	case "identifier":
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &Identifier{Name: v.Name}, nil

	case "fn_sig":
		var v struct {
			Inputs int   `json:"inputs"`
			Output *bool `json:"output"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		inputs := make([]DataType, v.Inputs)
		var output *DataType
		if v.Output != nil && *v.Output {
			f := F64
			output = &f
		}
		return &FnSig{Inputs: inputs, Output: output}, nil

	case "assignment":
		var v struct {
			Ident string          `json:"ident"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		val, err := unmarshalExpression(v.Value)
		if err != nil {
			return nil, err
		}
		return &Assignment{Ident: v.Ident, Value: val}, nil

	case "call":
		var v struct {
			Name   string            `json:"name"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		params := make([]Expression, len(v.Params))
		for i, r := range v.Params {
			p, err := unmarshalExpression(r)
			if err != nil {
				return nil, fmt.Errorf("params[%d]: %w", i, err)
			}
			params[i] = p
		}
		return &FunctionCall{Name: v.Name, Params: params}, nil

	case "if":
		var v struct {
			Condition json.RawMessage   `json:"condition"`
			True      []json.RawMessage `json:"true"`
			Else      []json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		cond, err := unmarshalExpression(v.Condition)
		if err != nil {
			return nil, err
		}
		trueBody, err := unmarshalExpressions(v.True)
		if err != nil {
			return nil, err
		}
		var elseBody []Expression
		if v.Else != nil {
			elseBody, err = unmarshalExpressions(v.Else)
			if err != nil {
				return nil, err
			}
		}
		return &IfStatement{Condition: cond, True: trueBody, Else: elseBody}, nil

	case "loop":
		var v struct {
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		body, err := unmarshalExpressions(v.Body)
		if err != nil {
			return nil, err
		}
		return &Loop{Body: body}, nil

	case "recur":
		return &Recur{}, nil

	default:
		return nil, fmt.Errorf("unknown expression kind %q", kind)
	}
}

func unmarshalExpressions(raw []json.RawMessage) ([]Expression, error) {
	out := make([]Expression, len(raw))
	for i, r := range raw {
		e, err := unmarshalExpression(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}
