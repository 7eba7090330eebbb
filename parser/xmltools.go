package parser

import "regexp"

// XMLRecognizer parses the "-xml-tools" simulated format: a call is a tag
// whose name is the tool name, containing one child element per parameter,
// e.g. `<read_file><path>main.go</path></read_file>`. A call may optionally
// be wrapped in a `<tool_call>...</tool_call>` marker element, which is
// stripped before the inner tag is interpreted as the call itself.
// Parameter values are plain text: a call whose body holds anything other
// than child elements without nested tags is not recognized.
type XMLRecognizer struct {
	wrapper  *regexp.Regexp
	call     *regexp.Regexp
	param    *regexp.Regexp
}

// NewXMLRecognizer compiles the regular expressions the recognizer scans
// with once at construction, rather than on every call.
func NewXMLRecognizer() *XMLRecognizer {
	return &XMLRecognizer{
		wrapper: regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`),
		call:    regexp.MustCompile(`(?s)<([a-zA-Z_][\w.-]*)>((?:\s*<[a-zA-Z_][\w.-]*>[^<]*</[a-zA-Z_][\w.-]*>)*\s*)</([a-zA-Z_][\w.-]*)>`),
		param:   regexp.MustCompile(`(?s)<([a-zA-Z_][\w.-]*)>(.*?)</[a-zA-Z_][\w.-]*>`),
	}
}

func (r *XMLRecognizer) Name() string { return "xml-tools" }

// SafeTextPrefixLen returns how many leading bytes of buf cannot possibly
// be the start of a tool call, so they may be flushed to the client as
// plain text without risking splitting a sentinel across chunk boundaries.
func (r *XMLRecognizer) SafeTextPrefixLen(buf string) int {
	idx := indexAny(buf, "<")
	if idx == -1 {
		return len(buf)
	}
	return idx
}

// Extract finds the first complete call in buf (wrapped or bare) and
// returns it along with buf with that call removed.
func (r *XMLRecognizer) Extract(buf string) (*ToolCall, string, bool) {
	if loc := r.wrapper.FindStringSubmatchIndex(buf); loc != nil {
		inner := buf[loc[2]:loc[3]]
		if call, ok := r.parseCall(inner); ok {
			return call, buf[:loc[0]] + buf[loc[1]:], true
		}
	}
	if loc := r.call.FindStringSubmatchIndex(buf); loc != nil {
		name := buf[loc[2]:loc[3]]
		closing := buf[loc[6]:loc[7]]
		if name != closing {
			return nil, buf, false
		}
		body := buf[loc[4]:loc[5]]
		call := &ToolCall{ID: newToolCallID(), Name: name, Input: r.parseParams(body)}
		return call, buf[:loc[0]] + buf[loc[1]:], true
	}
	return nil, buf, false
}

func (r *XMLRecognizer) parseCall(inner string) (*ToolCall, bool) {
	loc := r.call.FindStringSubmatchIndex(inner)
	if loc == nil {
		return nil, false
	}
	name := inner[loc[2]:loc[3]]
	closing := inner[loc[6]:loc[7]]
	if name != closing {
		return nil, false
	}
	body := inner[loc[4]:loc[5]]
	return &ToolCall{ID: newToolCallID(), Name: name, Input: r.parseParams(body)}, true
}

func (r *XMLRecognizer) parseParams(body string) map[string]interface{} {
	matches := r.param.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return map[string]interface{}{}
	}
	params := make(map[string]interface{}, len(matches))
	for _, m := range matches {
		params[m[1]] = m[2]
	}
	return params
}

func indexAny(s, chars string) int {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return i
			}
		}
	}
	return -1
}
