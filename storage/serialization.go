// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/taskquery/core"
)

// taskVersion prefixes every encoded task.
const taskVersion uint64 = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %v", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalTask serializes a Task to bytes. Due dates are stored as civil
// days in ISO form, "" for none.
func MarshalTask(task *core.Task) []byte {
	due := encodeDue(task)
	size := varint.Uint64.Size(taskVersion) +
		varint.Uint64.Size(uint64(task.Id)) +
		ord.String.Size(task.Text) +
		varint.Int.Size(task.Priority) +
		ord.String.Size(due) +
		ord.String.Size(task.Status) +
		varint.Int.Size(len(task.Tags)) +
		ord.String.Size(task.Folder) +
		ord.String.Size(task.Path) +
		varint.Int.Size(task.Line)
	for _, tag := range task.Tags {
		size += ord.String.Size(tag)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(taskVersion, buf)
	n += varint.Uint64.Marshal(uint64(task.Id), buf[n:])
	n += ord.String.Marshal(task.Text, buf[n:])
	n += varint.Int.Marshal(task.Priority, buf[n:])
	n += ord.String.Marshal(due, buf[n:])
	n += ord.String.Marshal(task.Status, buf[n:])
	n += varint.Int.Marshal(len(task.Tags), buf[n:])
	for _, tag := range task.Tags {
		n += ord.String.Marshal(tag, buf[n:])
	}
	n += ord.String.Marshal(task.Folder, buf[n:])
	n += ord.String.Marshal(task.Path, buf[n:])
	varint.Int.Marshal(task.Line, buf[n:])
	return buf
}

// UnmarshalTask deserializes a Task from bytes.
func UnmarshalTask(data []byte) (*core.Task, error) {
	d := decoder{data: data}
	version := d.uint64()
	if d.err == nil && version != taskVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	task := &core.Task{}
	task.Id = core.ID(d.uint64())
	task.Text = d.string()
	task.Priority = d.int()
	due := d.string()
	task.Status = d.string()
	count := d.int()
	if d.err == nil && (count < 0 || count > len(d.data)-d.n) {
		return nil, fmt.Errorf("%w: tag count %d", ErrTruncatedData, count)
	}
	if count > 0 {
		task.Tags = make([]string, 0, count)
		for range count {
			task.Tags = append(task.Tags, d.string())
		}
	}
	task.Folder = d.string()
	task.Path = d.string()
	task.Line = d.int()
	if d.err != nil {
		return nil, fmt.Errorf("%w: task: %v", ErrSerializationFailed, d.err)
	}

	if due != "" {
		t, err := time.Parse(core.IsoDateLayout, due)
		if err != nil {
			return nil, fmt.Errorf("%w: due date %q: %v", ErrSerializationFailed, due, err)
		}
		task.Due = t
	}
	return task, nil
}

func encodeDue(task *core.Task) string {
	if !task.HasDue() {
		return ""
	}
	return core.CivilDay(task.Due).Format(core.IsoDateLayout)
}

// decoder reads fields in order and keeps the first error.
type decoder struct {
	data []byte
	n    int
	err  error
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}
