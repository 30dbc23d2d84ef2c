package badger

import (
	"encoding/binary"

	"github.com/poiesic/taskquery/core"
)

// Key prefixes. Every task key carries the generation it belongs to so a
// full replacement can be written beside the live set and swapped in.
const (
	taskPrefix     = "task"
	taskPathPrefix = "taskpath"
	generationKey  = "meta:generation"
)

// makeGenerationPrefix returns prefix:gen: with gen in BigEndian order.
func makeGenerationPrefix(prefix string, gen uint64) []byte {
	buf := make([]byte, 0, len(prefix)+10)
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, gen)
	return append(buf, ':')
}

// makeTaskKey generates the primary key of a task.
// Format: task:gen:id
func makeTaskKey(gen uint64, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(makeGenerationPrefix(taskPrefix, gen), uint64(id))
}

// makeTaskPathPrefix generates the index prefix of one source file.
// Format: taskpath:gen:path\x00
func makeTaskPathPrefix(gen uint64, path string) []byte {
	buf := append(makeGenerationPrefix(taskPathPrefix, gen), path...)
	return append(buf, 0)
}

// makeTaskPathKey generates the path index key of a task. Lines sort
// numerically within a file.
// Format: taskpath:gen:path\x00line:id
func makeTaskPathKey(gen uint64, task *core.Task) []byte {
	buf := makeTaskPathPrefix(gen, task.Path)
	buf = binary.BigEndian.AppendUint64(buf, uint64(task.Line))
	return binary.BigEndian.AppendUint64(buf, uint64(task.Id))
}

func encodeGeneration(gen uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, gen)
}

func decodeGeneration(val []byte) uint64 {
	if len(val) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(val)
}
