package apl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CompiledRotation is the runtime representation of an APL file.
type CompiledRotation struct {
	Name        string
	Description string
	Job         string
	Variables   map[string]any
	Prepull     []*Action
	Actions     []*Action
}

// ActionType enumerates supported rotation actions.
type ActionType int

const (
	ActionUse ActionType = iota
	ActionUseOgcd
	ActionUseUntil
	ActionWait
	ActionSpecial
	ActionMacro
)

// Action is a compiled, ready-to-evaluate rotation entry.
type Action struct {
	Type      ActionType
	Ability   string
	Until     time.Duration
	Duration  time.Duration
	Label     string
	Steps     []*Action
	Condition Condition
	Tags      []string
}

// Compile turns a parsed File into a CompiledRotation. Ability and buff names
// are checked against names; a nil names accepts anything.
func Compile(file *File, names *Names) (*CompiledRotation, error) {
	if file == nil {
		return nil, fmt.Errorf("nil rotation file")
	}
	c := &compiler{names: names, vars: file.Variables}
	prepull, err := c.compileList("prepull", file.Prepull)
	if err != nil {
		return nil, err
	}
	actions, err := c.compileList("rotation", file.Rotation)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("rotation '%s' has no actions", file.Name)
	}
	for idx, a := range actions {
		if a.Type == ActionSpecial {
			return nil, fmt.Errorf("rotation entry %d: special rows are only allowed in prepull or macros", idx)
		}
	}
	return &CompiledRotation{
		Name:        file.Name,
		Description: file.Description,
		Job:         file.Job,
		Variables:   file.Variables,
		Prepull:     prepull,
		Actions:     actions,
	}, nil
}

type compiler struct {
	names *Names
	vars  map[string]any
}

func (c *compiler) compileList(section string, defs []ActionDefinition) ([]*Action, error) {
	var actions []*Action
	for idx := range defs {
		action, err := c.compileAction(&defs[idx])
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", section, idx, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (c *compiler) compileAction(def *ActionDefinition) (*Action, error) {
	if def == nil {
		return nil, fmt.Errorf("nil action")
	}
	action := &Action{
		Tags: def.Tags,
	}
	var err error
	action.Condition, err = c.compileCondition(def.When)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(def.Action) {
	case "use", "use_ogcd", "use_until":
		if def.Ability == "" {
			return nil, fmt.Errorf("%s action requires 'ability'", def.Action)
		}
		name, err := c.names.validateAbilityName(def.Ability)
		if err != nil {
			return nil, err
		}
		action.Ability = name
		switch strings.ToLower(def.Action) {
		case "use":
			action.Type = ActionUse
		case "use_ogcd":
			action.Type = ActionUseOgcd
		default:
			if def.UntilSeconds == 0 {
				return nil, fmt.Errorf("use_until action requires until_seconds")
			}
			action.Type = ActionUseUntil
			action.Until = seconds(def.UntilSeconds)
		}
	case "wait":
		if def.DurationSeconds <= 0 {
			return nil, fmt.Errorf("wait action requires duration_seconds > 0")
		}
		action.Type = ActionWait
		action.Duration = seconds(def.DurationSeconds)
	case "special":
		if strings.TrimSpace(def.Label) == "" {
			return nil, fmt.Errorf("special action requires 'label'")
		}
		action.Type = ActionSpecial
		action.Label = def.Label
	case "macro":
		action.Type = ActionMacro
		for stepIdx := range def.Steps {
			step, err := c.compileAction(&def.Steps[stepIdx])
			if err != nil {
				return nil, fmt.Errorf("macro step %d: %w", stepIdx, err)
			}
			action.Steps = append(action.Steps, step)
		}
		if len(action.Steps) == 0 {
			return nil, fmt.Errorf("macro action requires steps")
		}
	default:
		return nil, fmt.Errorf("unsupported action '%s'", def.Action)
	}

	return action, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func (c *compiler) compileCondition(node *ConditionNode) (Condition, error) {
	if node == nil || node.Node() == nil {
		return trueCondition{}, nil
	}
	return c.parseConditionNode(node.Node())
}

func (c *compiler) parseConditionNode(node *yaml.Node) (Condition, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return c.parseConditionMapping(node)
	case yaml.SequenceNode:
		// Treat bare sequences as implicit "all"
		children, err := c.parseConditionSequence(node)
		if err != nil {
			return nil, err
		}
		return allCondition{children: children}, nil
	case yaml.ScalarNode:
		var boolVal bool
		if err := node.Decode(&boolVal); err == nil {
			if boolVal {
				return trueCondition{}, nil
			}
			return falseCondition{}, nil
		}
		return nil, fmt.Errorf("unsupported scalar condition: %s", node.Value)
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}

func (c *compiler) parseConditionMapping(node *yaml.Node) (Condition, error) {
	if len(node.Content)%2 != 0 || len(node.Content) == 0 {
		return nil, fmt.Errorf("condition mapping must have key/value pairs")
	}
	if len(node.Content) != 2 {
		return nil, fmt.Errorf("condition mapping must have exactly one entry")
	}

	key := node.Content[0].Value
	val := node.Content[1]
	vars := c.vars

	switch key {
	case "all":
		children, err := c.parseConditionSequence(val)
		if err != nil {
			return nil, fmt.Errorf("all: %w", err)
		}
		return allCondition{children: children}, nil
	case "any":
		children, err := c.parseConditionSequence(val)
		if err != nil {
			return nil, fmt.Errorf("any: %w", err)
		}
		return anyCondition{children: children}, nil
	case "not":
		child, err := c.parseConditionNode(val)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return notCondition{child: child}, nil
	case "true":
		return trueCondition{}, nil
	case "false":
		return falseCondition{}, nil
	case "combat_started":
		var want bool
		if err := val.Decode(&want); err != nil {
			return nil, fmt.Errorf("combat_started: %w", err)
		}
		return combatStartedCondition{want: want}, nil
	case "buff_active":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		rawName, err := stringField(params, "buff", true, vars)
		if err != nil {
			return nil, err
		}
		name, err := c.names.validateBuffName(rawName)
		if err != nil {
			return nil, err
		}
		cond := buffActiveCondition{name: name}
		if cond.minRemaining, err = durationField(params, "min_remaining", vars); err != nil {
			return nil, err
		}
		if cond.maxRemaining, err = durationField(params, "max_remaining", vars); err != nil {
			return nil, err
		}
		return cond, nil
	case "dot_remaining":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		ability, err := c.abilityField(params)
		if err != nil {
			return nil, err
		}
		cond := dotRemainingCondition{ability: ability}
		if cond.bounds, err = durationBounds(params, vars); err != nil {
			return nil, err
		}
		return cond, nil
	case "cooldown_ready":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		ability, err := c.abilityField(params)
		if err != nil {
			return nil, err
		}
		return cooldownReadyCondition{ability: ability}, nil
	case "cooldown_remaining":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		ability, err := c.abilityField(params)
		if err != nil {
			return nil, err
		}
		cond := cooldownRemainingCondition{ability: ability}
		if cond.bounds, err = durationBounds(params, vars); err != nil {
			return nil, err
		}
		return cond, nil
	case "charges":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		cond := chargesCondition{}
		if _, ok := params["buff"]; ok {
			rawName, err := stringField(params, "buff", true, vars)
			if err != nil {
				return nil, err
			}
			if cond.buff, err = c.names.validateBuffName(rawName); err != nil {
				return nil, err
			}
		} else if cond.ability, err = c.abilityField(params); err != nil {
			return nil, err
		}
		if cond.lt, err = intField(params, "lt", vars); err != nil {
			return nil, err
		}
		if cond.lte, err = intField(params, "lte", vars); err != nil {
			return nil, err
		}
		if cond.gt, err = intField(params, "gt", vars); err != nil {
			return nil, err
		}
		if cond.gte, err = intField(params, "gte", vars); err != nil {
			return nil, err
		}
		return cond, nil
	case "fight_remaining":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		cond := fightRemainingCondition{}
		if cond.bounds, err = durationBounds(params, vars); err != nil {
			return nil, err
		}
		return cond, nil
	default:
		return nil, fmt.Errorf("unknown condition '%s'", key)
	}
}

func (c *compiler) abilityField(params map[string]*yaml.Node) (string, error) {
	raw, err := stringField(params, "ability", true, c.vars)
	if err != nil {
		return "", err
	}
	return c.names.validateAbilityName(raw)
}

func durationBounds(params map[string]*yaml.Node, vars map[string]any) (bounds[time.Duration], error) {
	var b bounds[time.Duration]
	var err error
	if b.lt, err = durationField(params, "lt_seconds", vars); err != nil {
		return b, err
	}
	if b.lte, err = durationField(params, "lte_seconds", vars); err != nil {
		return b, err
	}
	if b.gt, err = durationField(params, "gt_seconds", vars); err != nil {
		return b, err
	}
	if b.gte, err = durationField(params, "gte_seconds", vars); err != nil {
		return b, err
	}
	return b, nil
}

func (c *compiler) parseConditionSequence(node *yaml.Node) ([]Condition, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected sequence, got %d", node.Kind)
	}
	children := make([]Condition, 0, len(node.Content))
	for idx, childNode := range node.Content {
		child, err := c.parseConditionNode(childNode)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", idx, err)
		}
		children = append(children, child)
	}
	return children, nil
}

func nodeToMap(node *yaml.Node) (map[string]*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping node, got %d", node.Kind)
	}
	result := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		result[key] = node.Content[i+1]
	}
	return result, nil
}

func stringField(fields map[string]*yaml.Node, key string, required bool, vars map[string]any) (string, error) {
	node, ok := fields[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing field '%s'", key)
		}
		return "", nil
	}
	val, err := resolveScalar(node, vars)
	if err != nil {
		return "", err
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func durationField(fields map[string]*yaml.Node, key string, vars map[string]any) (*time.Duration, error) {
	val, err := floatField(fields, key, vars)
	if err != nil || val == nil {
		return nil, err
	}
	d := time.Duration(*val * float64(time.Second))
	return &d, nil
}

func floatField(fields map[string]*yaml.Node, key string, vars map[string]any) (*float64, error) {
	node, ok := fields[key]
	if !ok {
		return nil, nil
	}
	val, err := resolveScalar(node, vars)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	case uint64:
		f := float64(v)
		return &f, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float for key '%s'", v, key)
	}
}

func intField(fields map[string]*yaml.Node, key string, vars map[string]any) (*int, error) {
	node, ok := fields[key]
	if !ok {
		return nil, nil
	}
	val, err := resolveScalar(node, vars)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case int:
		return &v, nil
	case int64:
		c := int(v)
		return &c, nil
	case uint64:
		c := int(v)
		return &c, nil
	case float64:
		c := int(v)
		return &c, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to int for key '%s'", v, key)
	}
}

func resolveScalar(node *yaml.Node, vars map[string]any) (interface{}, error) {
	if node == nil {
		return nil, fmt.Errorf("nil scalar")
	}
	var out interface{}
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	if str, ok := out.(string); ok {
		str = strings.TrimSpace(str)
		if strings.HasPrefix(str, "${") && strings.HasSuffix(str, "}") {
			name := strings.TrimSpace(str[2 : len(str)-1])
			if vars == nil {
				return nil, fmt.Errorf("variable '%s' not defined", name)
			}
			val, ok := vars[name]
			if !ok {
				return nil, fmt.Errorf("variable '%s' not defined", name)
			}
			return val, nil
		}
	}
	return out, nil
}
