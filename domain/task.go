package domain

import (
	_ "embed"
	"encoding/json"
	"math/rand"

	"sus-lab/errors"
)

//go:embed tasks.json
var taskCatalogFile []byte

// Task is a static catalog entry. The catalog is embedded at build time and
// loaded once; it is never mutated afterwards.
type Task struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // nominal duration in seconds
}

type Catalog []Task

// LoadCatalog parses the embedded task catalog.
func LoadCatalog() (Catalog, error) {
	var tasks []Task
	if err := json.Unmarshal(taskCatalogFile, &tasks); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, errors.ErrEmptyCatalog
	}
	return tasks, nil
}

// TasksPerPlayer is the fixed task set size handed to each participant.
const TasksPerPlayer = 3

// Sample draws n distinct tasks without replacement. When the catalog holds
// fewer than n entries, every entry is returned. The result order is fixed
// for client display but carries no gameplay meaning.
func (c Catalog) Sample(rng *rand.Rand, n int) []Task {
	if n > len(c) {
		n = len(c)
	}
	picked := make([]Task, 0, n)
	for _, i := range rng.Perm(len(c))[:n] {
		picked = append(picked, c[i])
	}
	return picked
}
