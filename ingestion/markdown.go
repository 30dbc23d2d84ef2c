package ingestion

import (
	"bufio"
	"io"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
)

var (
	checklistRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+\[(.)\]\s+(.*)$`)
	dueEmojiRe  = regexp.MustCompile(`📅\s*(\d{4}-\d{2}-\d{2})`)
	fieldRe     = regexp.MustCompile(`\[\s*(due|priority)\s*::\s*([^\]]*)\]`)
	tagRe       = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_/-]+)`)
	digitsRe    = regexp.MustCompile(`^[\p{N}/_-]+$`)
	fenceRe     = regexp.MustCompile("^\\s*(```|~~~)")
	spacesRe    = regexp.MustCompile(`\s{2,}`)
)

// priorityEmoji follows the Tasks plugin signifiers, folded onto four levels.
var priorityEmoji = []struct {
	emoji string
	level int
}{
	{"🔺", 1},
	{"⏫", 2},
	{"🔼", 3},
	{"🔽", 4},
	{"⏬", 4},
}

var priorityNames = map[string]int{
	"highest": 1, "urgent": 1,
	"high":   2,
	"medium": 3, "normal": 3,
	"low": 4, "lowest": 4,
}

// ParseFile reads the checklist tasks of one Markdown file. relPath is the
// slash-separated path relative to the vault root; it sets Path, Folder
// and the task IDs. Lines inside fenced code blocks are skipped.
func ParseFile(relPath string, r io.Reader) ([]*core.Task, error) {
	relPath = path.Clean(strings.TrimPrefix(relPath, "/"))
	folder := path.Dir(relPath)
	if folder == "." {
		folder = ""
	}

	var tasks []*core.Task
	inFence := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if fenceRe.MatchString(text) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		task, ok := ParseLine(text)
		if !ok {
			continue
		}
		task.Id = core.IDFromLocation(relPath, line)
		task.Path = relPath
		task.Folder = folder
		task.Line = line
		tasks = append(tasks, task)
	}
	return tasks, scanner.Err()
}

// ParseLine parses one checklist line such as
//
//	- [ ] Fix login bug ⏫ 📅 2025-03-14 #work
//
// Due date and priority markers are removed from the text; tags stay.
func ParseLine(line string) (*core.Task, bool) {
	m := checklistRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	task := &core.Task{Status: m[1]}
	text := m[2]

	if dm := dueEmojiRe.FindStringSubmatch(text); dm != nil {
		if due, err := extract.ParseAbsolute(dm[1]); err == nil {
			task.Due = due
		}
		text = dueEmojiRe.ReplaceAllString(text, "")
	}

	for _, fm := range fieldRe.FindAllStringSubmatch(text, -1) {
		value := strings.TrimSpace(fm[2])
		switch strings.ToLower(fm[1]) {
		case "due":
			if due, err := extract.ParseAbsolute(value); err == nil && !task.HasDue() {
				task.Due = due
			}
		case "priority":
			if level := parsePriority(value); level != core.PriorityNone && !task.HasPriority() {
				task.Priority = level
			}
		}
	}
	text = fieldRe.ReplaceAllString(text, "")

	for _, p := range priorityEmoji {
		if strings.Contains(text, p.emoji) {
			if !task.HasPriority() {
				task.Priority = p.level
			}
			text = strings.ReplaceAll(text, p.emoji, "")
		}
	}

	for _, tm := range tagRe.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(strings.TrimRight(tm[1], "/"))
		if tag == "" || digitsRe.MatchString(tag) || slices.Contains(task.Tags, tag) {
			continue
		}
		task.Tags = append(task.Tags, tag)
	}

	task.Text = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))
	if task.Text == "" {
		return nil, false
	}
	return task, true
}

func parsePriority(value string) int {
	value = strings.ToLower(strings.TrimSpace(value))
	if level, ok := priorityNames[value]; ok {
		return level
	}
	value = strings.TrimPrefix(value, "p")
	if n, err := strconv.Atoi(value); err == nil && n >= core.PriorityHighest && n <= core.PriorityLowest {
		return n
	}
	return core.PriorityNone
}
