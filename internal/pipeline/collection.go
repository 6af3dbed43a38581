package pipeline

import "fmt"

// FileCollection is an ordered set of pipeline files keyed by LocalPath.
// Iteration order is insertion order, preserved across Add/Discard, so
// operator diagnostics and notification summaries are reproducible
// (spec.md §3).
//
// A collection is mutated by at most one phase at a time (spec.md §9's
// single-writer discipline); it does not defend itself with a mutex.
// Concurrent phase-internal I/O mutates individual *PipelineFile records
// in place, never the collection's own index.
type FileCollection struct {
	order []string
	index map[string]int // LocalPath -> position in order
	files map[string]*PipelineFile
}

// NewFileCollection returns an empty collection.
func NewFileCollection() *FileCollection {
	return &FileCollection{
		index: make(map[string]int),
		files: make(map[string]*PipelineFile),
	}
}

// Add inserts f, keyed by f.LocalPath. Returns ErrDuplicateFile if a
// record with the same LocalPath already exists.
func (c *FileCollection) Add(f *PipelineFile) error {
	if f.LocalPath == "" {
		return NewError(KindInvariantViolation, "collection.Add", fmt.Errorf("empty local_path"))
	}

	if _, exists := c.files[f.LocalPath]; exists {
		return NewError(KindInvariantViolation, "collection.Add",
			fmt.Errorf("%w: %s", ErrDuplicateFile, f.LocalPath))
	}

	c.index[f.LocalPath] = len(c.order)
	c.order = append(c.order, f.LocalPath)
	c.files[f.LocalPath] = f

	return nil
}

// Discard removes the record at localPath, if present. Removing excludes
// it from every later phase (used by the resolver's filter_regex policy).
func (c *FileCollection) Discard(localPath string) {
	pos, ok := c.index[localPath]
	if !ok {
		return
	}

	delete(c.files, localPath)
	delete(c.index, localPath)
	c.order = append(c.order[:pos], c.order[pos+1:]...)

	for i := pos; i < len(c.order); i++ {
		c.index[c.order[i]] = i
	}
}

// Get returns the record at localPath, or nil if absent.
func (c *FileCollection) Get(localPath string) *PipelineFile {
	return c.files[localPath]
}

// Count returns the number of records currently in the collection.
func (c *FileCollection) Count() int {
	return len(c.order)
}

// All returns every record in insertion order. The returned slice is a
// snapshot of the current order; mutating the collection afterward does
// not affect it, and a later call sees the new contents.
func (c *FileCollection) All() []*PipelineFile {
	out := make([]*PipelineFile, 0, len(c.order))

	for _, path := range c.order {
		out = append(out, c.files[path])
	}

	return out
}

// View returns the records matching predicate, evaluated fresh at call
// time against the collection's current contents and order. Like All's,
// the returned slice is a snapshot: records added or discarded afterward
// do not appear in or vanish from it. Nothing is cached between calls, so
// each new call reflects every mutation made before it.
func (c *FileCollection) View(predicate func(*PipelineFile) bool) []*PipelineFile {
	var out []*PipelineFile

	for _, path := range c.order {
		f := c.files[path]
		if predicate(f) {
			out = append(out, f)
		}
	}

	return out
}
