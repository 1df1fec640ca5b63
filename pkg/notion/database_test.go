package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient replays a scripted sequence of query responses.
type stubClient struct {
	responses []*notionapi.DatabaseQueryResponse
	errs      []error
	calls     int
	cursors   []notionapi.Cursor
}

func (s *stubClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	i := s.calls
	s.calls++
	s.cursors = append(s.cursors, req.StartCursor)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func page(id string) notionapi.Page {
	return notionapi.Page{ID: notionapi.ObjectID(id)}
}

func TestQueryAll_SinglePage(t *testing.T) {
	c := &stubClient{
		responses: []*notionapi.DatabaseQueryResponse{
			{Results: []notionapi.Page{page("p1"), page("p2")}, HasMore: false},
		},
	}

	pages, err := QueryAll(context.Background(), c, "db", nil)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, 1, c.calls)
}

func TestQueryAll_Paginated(t *testing.T) {
	c := &stubClient{
		responses: []*notionapi.DatabaseQueryResponse{
			{Results: []notionapi.Page{page("p1")}, HasMore: true, NextCursor: "c1"},
			{Results: []notionapi.Page{page("p2")}, HasMore: true, NextCursor: "c2"},
			{Results: []notionapi.Page{page("p3")}, HasMore: false},
		},
	}

	pages, err := QueryAll(context.Background(), c, "db", nil)
	require.NoError(t, err)
	assert.Len(t, pages, 3)
	assert.Equal(t, 3, c.calls)
	assert.Equal(t, []notionapi.Cursor{"", "c1", "c2"}, c.cursors)
}

func TestQueryAll_Error(t *testing.T) {
	c := &stubClient{
		responses: []*notionapi.DatabaseQueryResponse{nil},
		errs:      []error{assert.AnError},
	}

	_, err := QueryAll(context.Background(), c, "db", nil)
	assert.Error(t, err)
}

func TestQueryAll_CarriesFilter(t *testing.T) {
	filter := &notionapi.DatabaseQueryRequest{PageSize: 50}
	c := &stubClient{
		responses: []*notionapi.DatabaseQueryResponse{
			{Results: []notionapi.Page{page("p1")}, HasMore: false},
		},
	}

	pages, err := QueryAll(context.Background(), c, "db", filter)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
