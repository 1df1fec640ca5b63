package registry

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
	"github.com/ahead-health/dq-cli/pkg/notion"
)

// LoadIndicatorNotion queries the Notion indicator registry database for all
// active mappings and returns an indexed registry.
func LoadIndicatorNotion(ctx context.Context, client notion.Client, dbID string) (*model.IndicatorRegistry, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: "Active",
			},
		},
	}

	pages, err := notion.QueryAll(ctx, client, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load indicator registry")
	}

	var mappings []model.IndicatorMapping
	for _, p := range pages {
		m, err := parseIndicatorPage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed indicator page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		mappings = append(mappings, m)
	}

	return model.NewIndicatorRegistry(mappings), nil
}

func parseIndicatorPage(p notionapi.Page) (model.IndicatorMapping, error) {
	m := model.IndicatorMapping{Active: true}

	// Code (title)
	if prop, ok := p.Properties["Code"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			m.Code = plainText(tp.Title)
		}
	}

	// Name (rich_text)
	if prop, ok := p.Properties["Name"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			m.Name = plainText(rtp.RichText)
		}
	}

	// Type (select)
	if prop, ok := p.Properties["Type"]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			m.Type = sp.Select.Name
		}
	}

	// Status (status); the query filter already excludes non-active pages but
	// a stale cursor can still surface one.
	if prop, ok := p.Properties["Status"]; ok {
		if sp, ok := prop.(*notionapi.StatusProperty); ok {
			m.Active = sp.Status.Name == "Active"
		}
	}

	if m.Code == "" {
		return m, eris.New("missing Code property")
	}

	return m, nil
}

// plainText concatenates the plain_text values from a slice of RichText.
func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}
