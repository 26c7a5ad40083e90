package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

// statusNotFound makes the fake report ErrInstanceNotFound for one poll.
const statusNotFound cloud.InstanceStatus = "fake-not-found"

var _ cloud.API = (*fakeCloudAPI)(nil)

// fakeCloudAPI is an in-memory cloud.API for tests. Zero value is usable;
// behavior is tuned per test through the exported-style fields. All
// methods are safe for the worker-per-variant concurrency the
// orchestrator uses.
type fakeCloudAPI struct {
	mu sync.Mutex

	// createStatus is the status newly created instances report.
	createStatus cloud.InstanceStatus
	// createEndpoint/createPort populate new instance handles.
	createEndpoint string
	createPort     int

	// statusScript overrides DescribeInstance per id: each call consumes
	// one entry, the last repeats once exhausted.
	statusScript map[string][]cloud.InstanceStatus

	// catalogPages maps a continuation marker ("" is the first page) to
	// the parameter names on that page; catalogNext maps it to the next
	// marker.
	catalogPages map[string][]string
	catalogNext  map[string]string

	// createGroupErr fails CreateParameterGroup for the named groups.
	createGroupErr map[string]error
	// listErrs is consumed one per ListInstances call; nil entries succeed.
	listErrs []error

	instances map[string]*cloud.DBInstance
	groups    []string

	// recorded calls
	modified         map[string][]string // group -> "name=value" in order
	describeCatalog  map[string]int      // marker -> call count
	deletedInstances []string
	deletedGroups    []string
	listCalls        int
}

func (f *fakeCloudAPI) CreateInstance(_ context.Context, in cloud.CreateInstanceInput) (*cloud.DBInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.instances == nil {
		f.instances = make(map[string]*cloud.DBInstance)
	}
	status := f.createStatus
	if status == "" {
		status = cloud.StatusCreating
	}
	inst := &cloud.DBInstance{
		ID:       in.ID,
		Status:   status,
		Endpoint: f.createEndpoint,
		Port:     f.createPort,
	}
	f.instances[in.ID] = inst
	copied := *inst
	return &copied, nil
}

func (f *fakeCloudAPI) DescribeInstance(_ context.Context, id string) (*cloud.DBInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if script, ok := f.statusScript[id]; ok && len(script) > 0 {
		status := script[0]
		if len(script) > 1 {
			f.statusScript[id] = script[1:]
		}
		if status == statusNotFound {
			return nil, cloud.ErrInstanceNotFound
		}
		inst := f.instances[id]
		if inst == nil {
			inst = &cloud.DBInstance{ID: id}
		}
		copied := *inst
		copied.Status = status
		return &copied, nil
	}

	inst, ok := f.instances[id]
	if !ok {
		return nil, cloud.ErrInstanceNotFound
	}
	copied := *inst
	return &copied, nil
}

func (f *fakeCloudAPI) ListInstances(_ context.Context) ([]*cloud.DBInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.listCalls
	f.listCalls++
	if call < len(f.listErrs) && f.listErrs[call] != nil {
		return nil, f.listErrs[call]
	}
	var out []*cloud.DBInstance
	for _, inst := range f.instances {
		copied := *inst
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeCloudAPI) DeleteInstance(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedInstances = append(f.deletedInstances, id)
	delete(f.instances, id)
	return nil
}

func (f *fakeCloudAPI) CreateParameterGroup(_ context.Context, name, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createGroupErr[name]; err != nil {
		return err
	}
	f.groups = append(f.groups, name)
	return nil
}

func (f *fakeCloudAPI) DescribeParameters(_ context.Context, _, marker string) ([]string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.describeCatalog == nil {
		f.describeCatalog = make(map[string]int)
	}
	f.describeCatalog[marker]++
	return f.catalogPages[marker], f.catalogNext[marker], nil
}

func (f *fakeCloudAPI) ModifyParameter(_ context.Context, group, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modified == nil {
		f.modified = make(map[string][]string)
	}
	f.modified[group] = append(f.modified[group], name+"="+value)
	return nil
}

func (f *fakeCloudAPI) DeleteParameterGroup(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedGroups = append(f.deletedGroups, name)
	return nil
}

// testConfig returns the compiled-in definition with the polling and reap
// intervals shrunk so tests run in milliseconds.
func testConfig() config.RunConfig {
	cfg := config.Default()
	cfg.PollInterval = time.Millisecond
	cfg.PollMaxAttempts = 5
	cfg.ReapInterval = time.Millisecond
	cfg.ReapMaxRounds = 5
	return cfg
}

// fullCatalog returns a single-page catalog listing every parameter the
// default variants touch.
func fullCatalog() map[string][]string {
	return map[string][]string{
		"": {
			"character_set_server",
			"character_set_client",
			"character_set_connection",
			"character_set_database",
			"character_set_results",
			"collation_server",
			"collation_connection",
			"innodb_buffer_pool_size",
			"max_heap_table_size",
			"tmp_table_size",
		},
	}
}
