package workshop

import (
	"strings"

	"github.com/pkg/errors"
)

type Action string

const (
	ActionReword    Action = "reword"
	ActionRefine    Action = "refine"
	ActionShorten   Action = "shorten"
	ActionExpand    Action = "expand"
	ActionSummarize Action = "summarize"
	ActionOther     Action = "other"
)

var (
	ErrUnknownAction    = errors.New("unknown action")
	ErrEmptyInstruction = errors.New("custom instruction is empty")
)

// ActionInfo describes an action for menu surfaces. Instruction is the
// text sent to the rewrite service; it is empty for ActionOther, whose
// instruction comes from the user.
type ActionInfo struct {
	Action      Action
	Title       string
	Description string
	Instruction string
}

var actions = []ActionInfo{
	{ActionReword, "Reword", "Alter words, keep semantic intent", "Reword this text while keeping the semantic intent"},
	{ActionRefine, "Refine", "Improve style, preserve meaning", "Improve the style and preserve the meaning"},
	{ActionShorten, "Shorten", "Cut clutter, keep message", "Make this text more concise"},
	{ActionExpand, "Expand", "Add depth, retain purpose", "Add more depth and detail to this text"},
	{ActionSummarize, "Summarize", "Condense, retain core ideas", "Summarize this text while retaining core ideas"},
	{ActionOther, "Other", "Customize with any instruction", ""},
}

// Actions returns the menu entries in display order.
func Actions() []ActionInfo {
	result := make([]ActionInfo, len(actions))
	copy(result, actions)
	return result
}

func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := a.info(); !ok {
		return "", errors.Wrapf(ErrUnknownAction, "%q", name)
	}
	return a, nil
}

func (a Action) info() (ActionInfo, bool) {
	for _, info := range actions {
		if info.Action == a {
			return info, true
		}
	}
	return ActionInfo{}, false
}

func (a Action) IsCustom() bool { return a == ActionOther }

// Instruction resolves the instruction for the action. Custom is used
// verbatim for ActionOther and ignored otherwise.
func (a Action) Instruction(custom string) (string, error) {
	info, ok := a.info()
	if !ok {
		return "", errors.Wrapf(ErrUnknownAction, "%q", string(a))
	}
	if !a.IsCustom() {
		return info.Instruction, nil
	}
	if strings.TrimSpace(custom) == "" {
		return "", ErrEmptyInstruction
	}
	return custom, nil
}

// BuildPrompt formats the request for the rewrite service:
// the instruction followed by the quoted block content.
func BuildPrompt(action Action, custom, content string) (string, error) {
	instruction, err := action.Instruction(custom)
	if err != nil {
		return "", err
	}
	return instruction + ": \"" + content + "\"", nil
}
