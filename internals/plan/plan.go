package plan

import (
	"encoding/json"
	"fmt"
	"os"

	z "github.com/Oudwins/zog"
)

// Task is one unit of research work. Tasks are immutable once loaded.
type Task struct {
	Title         string   `json:"title" zog:"title"`
	Scope         string   `json:"scope" zog:"scope"`
	Format        string   `json:"format" zog:"format"`
	Tools         []string `json:"tools" zog:"tools"`
	StopCondition string   `json:"stop_condition" zog:"stop_condition"`
}

var taskSchema = z.Struct(z.Shape{
	"Title":         z.String().Required().Trim(),
	"Scope":         z.String().Optional(),
	"Format":        z.String().Default("markdown"),
	"StopCondition": z.String().Optional(),
})

type planFile struct {
	Plan []json.RawMessage `json:"plan"`
}

// Load reads and validates a plan file. A missing or malformed file is a
// hard error; scheduling never starts on a bad plan.
func Load(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	var file planFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}

	tasks := make([]Task, 0, len(file.Plan))
	for i, raw := range file.Plan {
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("parse plan task %d: %w", i, err)
		}

		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("parse plan task %d: %w", i, err)
		}
		if errs := taskSchema.Parse(payload, &task); errs != nil {
			return nil, fmt.Errorf("invalid plan task %d: %v", i, errs)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}
