// Package category defines the fixed job category taxonomy.
package category

// Category is one entry of the taxonomy. ID is the numeric id job
// documents carry in their categoryId field.
type Category struct {
	Key      string `json:"key"`
	ID       int    `json:"id"`
	Label    string `json:"label"`
	IconName string `json:"iconName"`
}

// Categories is the full taxonomy in display order.
var Categories = []Category{
	{Key: "design", ID: 1, Label: "Design", IconName: "color-palette-outline"},
	{Key: "developer", ID: 2, Label: "Developer", IconName: "code-slash-outline"},
	{Key: "network", ID: 3, Label: "Network", IconName: "git-network-outline"},
	{Key: "quality", ID: 4, Label: "Quality Assurance", IconName: "shield-checkmark-outline"},
	{Key: "marketing", ID: 5, Label: "Marketing", IconName: "megaphone-outline"},
	{Key: "secretary", ID: 6, Label: "Secretary", IconName: "document-text-outline"},
	{Key: "analysis", ID: 7, Label: "Analysis", IconName: "analytics-outline"},
}

var byKey = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[c.Key] = c
	}
	return m
}()

var byID = func() map[int]Category {
	m := make(map[int]Category, len(Categories))
	for _, c := range Categories {
		m[c.ID] = c
	}
	return m
}()

// ByKey looks a category up by its key, e.g. "developer".
func ByKey(key string) (Category, bool) {
	c, ok := byKey[key]
	return c, ok
}

// ByID looks a category up by its numeric id.
func ByID(id int) (Category, bool) {
	c, ok := byID[id]
	return c, ok
}
