package registry

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLoadIndicatorNotion_Success(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "ind-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				makeIndicatorPage("p1", "anc1", "ANC first visit", "count", "Active"),
				makeIndicatorPage("p2", "penta3", "Penta third dose", "count", "Active"),
			},
			HasMore: false,
		}, nil).Once()

	reg, err := LoadIndicatorNotion(ctx, mc, "ind-db")
	assert.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	m, ok := reg.Lookup("anc1")
	assert.True(t, ok)
	assert.Equal(t, "ANC first visit", m.Name)
	assert.Equal(t, "count", m.Type)
	assert.True(t, m.Active)

	assert.Len(t, reg.Active(), 2)
	mc.AssertExpectations(t)
}

func TestLoadIndicatorNotion_Pagination(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "ind-db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == ""
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{makeIndicatorPage("p1", "anc1", "ANC first visit", "count", "Active")},
		HasMore:    true,
		NextCursor: "cursor-next",
	}, nil).Once()

	mc.On("QueryDatabase", ctx, "ind-db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "cursor-next"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{makeIndicatorPage("p2", "measles1", "Measles first dose", "count", "Active")},
		HasMore: false,
	}, nil).Once()

	reg, err := LoadIndicatorNotion(ctx, mc, "ind-db")
	assert.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
	mc.AssertExpectations(t)
}

func TestLoadIndicatorNotion_MalformedPage(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "ind-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				makeIndicatorPage("p1", "anc1", "ANC first visit", "count", "Active"),
				makeIndicatorPage("p2", "", "No code", "count", "Active"), // empty Code
			},
			HasMore: false,
		}, nil).Once()

	reg, err := LoadIndicatorNotion(ctx, mc, "ind-db")
	assert.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Lookup("anc1")
	assert.True(t, ok)
	mc.AssertExpectations(t)
}

func TestLoadIndicatorNotion_QueryError(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "ind-db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(nil, assert.AnError).Once()

	reg, err := LoadIndicatorNotion(ctx, mc, "ind-db")
	assert.Error(t, err)
	assert.Nil(t, reg)
	mc.AssertExpectations(t)
}

// makeIndicatorPage builds a fake notionapi.Page with indicator registry
// properties.
func makeIndicatorPage(id, code, name, indType, status string) notionapi.Page {
	props := make(notionapi.Properties)

	props["Code"] = &notionapi.TitleProperty{
		Type: notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{
			{PlainText: code},
		},
	}

	props["Name"] = &notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{PlainText: name},
		},
	}

	props["Type"] = &notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: indType},
	}

	props["Status"] = &notionapi.StatusProperty{
		Type:   notionapi.PropertyTypeStatus,
		Status: notionapi.Status{Name: status},
	}

	return notionapi.Page{
		ID:         notionapi.ObjectID(id),
		Properties: props,
	}
}
