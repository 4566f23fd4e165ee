package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Task is one prompt for the multi-task agent driver.
type Task struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt" validate:"required"`
}

// TaskFile is the YAML document read by LoadTasks:
//
//	tasks:
//	  - name: python-age
//	    prompt: Calculate 2024 - 1991.
type TaskFile struct {
	Tasks []Task `yaml:"tasks" validate:"required,min=1,dive"`
}

// DefaultTasks returns the built-in tasks run when no file is given.
func DefaultTasks() []Task {
	return []Task{
		{
			Name:   "python-age",
			Prompt: "Search for the latest Python version and calculate 2024 - 1991 to find how old Python is.",
		},
		{
			Name:   "claude-days",
			Prompt: "Find information about Claude AI and calculate how many days are in 3 years.",
		},
	}
}

// LoadTasks reads a task file. Tasks without a name are named by position.
func LoadTasks(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks %s: %w", path, err)
	}
	tasks, err := ParseTasks(data)
	if err != nil {
		return nil, fmt.Errorf("tasks %s: %w", path, err)
	}
	return tasks, nil
}

// ParseTasks decodes and validates a task document. Unknown keys are rejected.
func ParseTasks(data []byte) ([]Task, error) {
	var file TaskFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := validationError(validate.Struct(&file)); err != nil {
		return nil, err
	}
	for i := range file.Tasks {
		if file.Tasks[i].Name == "" {
			file.Tasks[i].Name = fmt.Sprintf("task-%d", i+1)
		}
	}
	return file.Tasks, nil
}
