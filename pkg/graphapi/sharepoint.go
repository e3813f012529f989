package graphapi

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/schema"
)

// listsToIgnore are built-in SharePoint lists that carry no user schema.
// The French names show up on sites provisioned with a French locale.
var listsToIgnore = map[string]struct{}{
	"Documents":                {},
	"Liens de partage":         {},
	"Extensions de modèle web": {},
	"User":                     {},
	"Web Template Extensions":  {},
}

// columnsToIgnore are SharePoint housekeeping columns present on every list.
var columnsToIgnore = map[string]struct{}{
	"_ColorTag":                 {},
	"ComplianceAssetId":         {},
	"_UIVersionString":          {},
	"Attachments":               {},
	"Edit":                      {},
	"LinkTitleNoMenu":           {},
	"LinkTitle":                 {},
	"DocIcon":                   {},
	"ItemChildCount":            {},
	"FolderChildCount":          {},
	"_ComplianceFlags":          {},
	"_ComplianceTag":            {},
	"_ComplianceTagWrittenTime": {},
	"_ComplianceTagUserId":      {},
	"_IsRecord":                 {},
	"AppAuthor":                 {},
	"AppEditor":                 {},
	"ID":                        {},
	"ContentType":               {},
}

// encodedNamePattern matches internal columns whose names carry encoded
// punctuation (e.g. "Title_x003a_ID"), which never belong in a schema diagram.
var encodedNamePattern = regexp.MustCompile(`x003a`)

// listResource is the wire shape of a Graph API list object. The system
// facet is an empty object whose mere presence marks a built-in list.
type listResource struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	System      json.RawMessage `json:"system"`
	List        struct {
		Hidden bool `json:"hidden"`
	} `json:"list"`
}

// columnResource is the wire shape of a Graph API columnDefinition. Column
// typing is facet-based: exactly one of the facet pointers is non-nil for a
// typed column.
type columnResource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Required    bool   `json:"required"`

	Text       *struct{}    `json:"text"`
	Lookup     *lookupFacet `json:"lookup"`
	DateTime   *struct{}    `json:"dateTime"`
	Number     *struct{}    `json:"number"`
	Choice     *struct{}    `json:"choice"`
	Boolean    *struct{}    `json:"boolean"`
	Person     *struct{}    `json:"person"`
	Calculated *struct{}    `json:"calculated"`
}

// lookupFacet carries the relationship target. Graph exposes a single listId
// even for multi-value lookups, so one facet resolves to at most one edge.
type lookupFacet struct {
	ListID              string `json:"listId"`
	ColumnName          string `json:"columnName"`
	AllowMultipleValues bool   `json:"allowMultipleValues"`
}

// kind maps facet presence onto the closed ColumnKind enumeration. Detection
// order matches the facet priority the diagram format was designed around.
func (c *columnResource) kind() (schema.ColumnKind, string) {
	switch {
	case c.Text != nil:
		return schema.KindText, ""
	case c.Lookup != nil:
		return schema.KindLookup, c.Lookup.ListID
	case c.DateTime != nil:
		return schema.KindDateTime, ""
	case c.Number != nil:
		return schema.KindNumber, ""
	case c.Choice != nil:
		return schema.KindChoice, ""
	case c.Boolean != nil:
		return schema.KindBoolean, ""
	case c.Person != nil:
		return schema.KindPerson, ""
	case c.Calculated != nil:
		return schema.KindCalculated, ""
	default:
		return schema.KindUnknown, ""
	}
}

// Lists fetches all user-facing lists for a site, columns included.
//
// System lists, hidden lists, and the built-in lists in listsToIgnore are
// filtered out before columns are fetched. Calls are sequential: the full
// list collection first, then one paginated column fetch per list.
func (c *Client) Lists(ctx context.Context, siteID string) ([]schema.List, error) {
	if err := errors.ValidateSiteID(siteID); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/sites/%s/lists", c.baseURL, siteID)

	var resources []listResource
	err := c.getPaged(ctx, url, func(page json.RawMessage) error {
		var batch []listResource
		if err := json.Unmarshal(page, &batch); err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "decode lists for site %s", siteID)
		}
		resources = append(resources, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var lists []schema.List
	for _, r := range resources {
		if r.ID == "" || r.DisplayName == "" {
			continue
		}
		if r.System != nil || r.List.Hidden {
			continue
		}
		if _, skip := listsToIgnore[r.DisplayName]; skip {
			continue
		}
		cols, err := c.Columns(ctx, siteID, r.ID)
		if err != nil {
			return nil, err
		}
		lists = append(lists, schema.List{
			ID:          r.ID,
			DisplayName: r.DisplayName,
			Columns:     cols,
		})
	}
	return lists, nil
}

// Columns fetches the column definitions for one list, filtered down to the
// columns worth showing in a diagram.
func (c *Client) Columns(ctx context.Context, siteID, listID string) ([]schema.Column, error) {
	url := fmt.Sprintf("%s/sites/%s/lists/%s/columns", c.baseURL, siteID, listID)

	var cols []schema.Column
	err := c.getPaged(ctx, url, func(page json.RawMessage) error {
		var batch []columnResource
		if err := json.Unmarshal(page, &batch); err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "decode columns for list %s", listID)
		}
		for _, r := range batch {
			if r.Name == "" {
				continue
			}
			if _, skip := columnsToIgnore[r.Name]; skip {
				continue
			}
			if encodedNamePattern.MatchString(r.Name) {
				continue
			}
			kind, target := r.kind()
			cols = append(cols, schema.Column{
				ID:           r.ID,
				Name:         r.Name,
				DisplayName:  r.DisplayName,
				Required:     r.Required,
				Kind:         kind,
				TargetListID: target,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cols, nil
}
