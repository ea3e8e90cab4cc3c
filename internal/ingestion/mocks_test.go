package ingestion

import (
	"context"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/acquisition"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockDBManager is a mock implementation of the DBManager interface. WithTx hands
// the Tx given to Return to the callback.
type MockDBManager struct {
	mock.Mock
}

func (m *MockDBManager) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDBManager) WithTx(ctx context.Context, fn func(database.Tx) error) error {
	args := m.Called(ctx, fn)
	if tx, ok := args.Get(0).(database.Tx); ok {
		if err := fn(tx); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockDBManager) TopOperatorsByExpense(ctx context.Context, window models.ReportWindow, description string, limit int) ([]models.OperatorExpense, error) {
	args := m.Called(ctx, window, description, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OperatorExpense), args.Error(1)
}

func (m *MockDBManager) SearchOperators(ctx context.Context, filter models.OperatorFilter) ([]models.Operator, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Operator), args.Error(1)
}

// MockTx is a mock implementation of the Tx interface.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) LockTable(ctx context.Context, table string) error {
	args := m.Called(ctx, table)
	return args.Error(0)
}

func (m *MockTx) ParentKeys(ctx context.Context, table, column string) (map[string]struct{}, error) {
	args := m.Called(ctx, table, column)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	args := m.Called(ctx, table, columns, rows, batchSize)
	return args.Get(0).(int64), args.Error(1)
}

// MockLoader is a mock implementation of the TableLoader interface.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, table *models.RawTable, entity models.Entity) (LoadResult, error) {
	args := m.Called(ctx, table, entity)
	return args.Get(0).(LoadResult), args.Error(1)
}

// MockWorker is a mock implementation of the Worker interface.
type MockWorker struct {
	mock.Mock
}

func (m *MockWorker) PrepareStatements(ctx context.Context, files []string) <-chan PreparedFile {
	args := m.Called(ctx, files)
	return args.Get(0).(<-chan PreparedFile)
}

// MockProcessor is a mock implementation of the Processor interface.
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ScanForFiles(path string) (SourceSet, error) {
	args := m.Called(path)
	return args.Get(0).(SourceSet), args.Error(1)
}

// MockAcquirer is a mock implementation of the Acquirer interface.
type MockAcquirer struct {
	mock.Mock
}

func (m *MockAcquirer) Acquire(ctx context.Context, dataDir string) {
	m.Called(ctx, dataDir)
}

// MockReporter is a mock implementation of the ReportRunner interface.
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Run(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	args := m.Called(ctx, pageURL)
	return args.String(0), args.Error(1)
}

func (m *MockFetcher) DownloadAll(ctx context.Context, urls []string, destDir string, workers int) []acquisition.Result {
	args := m.Called(ctx, urls, destDir, workers)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]acquisition.Result)
}

func preparedChannel(files ...PreparedFile) <-chan PreparedFile {
	ch := make(chan PreparedFile, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)
	return ch
}
