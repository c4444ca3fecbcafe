package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type executed struct {
	Query  string
	Params map[string]any
}

// MockDriver records every query and answers from Results, keyed by the
// query text.
type MockDriver struct {
	Executed []executed
	Results  map[string]neo4j.EagerResult
	Err      error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executed{Query: query, Params: params})
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.Results[query], nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func (m *MockDriver) queries() []string {
	out := make([]string, len(m.Executed))
	for i, e := range m.Executed {
		out[i] = e.Query
	}
	return out
}

func row(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func result(rows ...*neo4j.Record) neo4j.EagerResult {
	res := neo4j.EagerResult{Records: rows}
	if len(rows) > 0 {
		res.Keys = rows[0].Keys
	}
	return res
}
