package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskquery/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)},
		{"location ID", core.IDFromLocation("work/today.md", 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalTask(t *testing.T) {
	tests := []struct {
		name string
		task *core.Task
	}{
		{
			name: "minimal task",
			task: &core.Task{Id: 1, Text: "call mom", Status: " "},
		},
		{
			name: "all fields",
			task: &core.Task{
				Id:       core.IDFromLocation("work/sprint.md", 7),
				Text:     "Fix the login bug 🔺 📅 2025-03-14 #work/backend",
				Priority: 1,
				Due:      time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
				Status:   "/",
				Tags:     []string{"work/backend", "urgent"},
				Folder:   "work",
				Path:     "work/sprint.md",
				Line:     7,
			},
		},
		{
			name: "unicode text",
			task: &core.Task{Id: 3, Text: "修复登录问题", Status: "x", Tags: []string{"工作"}, Line: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalTask(MarshalTask(tt.task))
			require.NoError(t, err)
			assert.Equal(t, tt.task, decoded)
		})
	}
}

func TestMarshalTask_DueIsCivilDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	task := &core.Task{Id: 1, Text: "a", Status: " ", Due: time.Date(2025, time.March, 14, 23, 30, 0, 0, loc)}

	decoded, err := UnmarshalTask(MarshalTask(task))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), decoded.Due)
}

func TestUnmarshalTask_Invalid(t *testing.T) {
	data := MarshalTask(&core.Task{Id: 9, Text: "write report", Status: " ", Tags: []string{"work"}})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrSerializationFailed},
		{"truncated", data[:len(data)-3], ErrSerializationFailed},
		{"future version", append([]byte{0x7f}, data[1:]...), ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalTask(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStaticSource(t *testing.T) {
	a := &core.Task{Id: 1, Text: "a"}
	src := StaticSource{a}

	got, err := src.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])

	got[0] = nil
	assert.Same(t, a, src[0], "callers get their own slice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Tasks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
