package badger

import "github.com/poiesic/taskquery/storage"

// NewMemoryRepository creates an in-memory task repository for testing.
// Closing the repository closes its backend.
func NewMemoryRepository() (storage.TaskRepository, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, err
	}
	repo := NewTaskRepository(backend)
	repo.owned = true
	return repo, nil
}
