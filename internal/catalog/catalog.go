// Package catalog は支出カテゴリの静的な参照テーブルを提供する。
//
// Catalogは起動時に1回だけ構築され、以降は読み取り専用として扱う。
// 内部状態を変更するメソッドを持たないため、ロックなしで並行に参照できる。
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hitoshi/kakeibo/internal/model"
)

//go:embed categories.json
var defaultCategories []byte

// Catalog はイミュータブルなカテゴリ一覧。
type Catalog struct {
	ordered []model.Category
	byID    map[int]model.Category
}

type categoryEntry struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Default は埋め込みのカテゴリ表からCatalogを生成する。
func Default() (*Catalog, error) {
	return Parse(defaultCategories)
}

// Load はpathが空なら埋め込みのカテゴリ表を、そうでなければ指定ファイルを読み込む。
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category file: %w", err)
	}
	return Parse(data)
}

// Parse はJSON配列 [{"id":1,"label":"..."}] からCatalogを生成する。
// IDの重複、0以下のID、空ラベルはエラーとする。
func Parse(data []byte) (*Catalog, error) {
	var entries []categoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	return New(toCategories(entries))
}

// New は指定されたカテゴリからCatalogを生成する。引数のスライスはコピーされる。
func New(categories []model.Category) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]model.Category, 0, len(categories)),
		byID:    make(map[int]model.Category, len(categories)),
	}
	for _, cat := range categories {
		if cat.ID <= 0 {
			return nil, fmt.Errorf("invalid category id: %d", cat.ID)
		}
		if strings.TrimSpace(cat.Label) == "" {
			return nil, fmt.Errorf("empty label for category %d", cat.ID)
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id: %d", cat.ID)
		}
		c.byID[cat.ID] = cat
		c.ordered = append(c.ordered, cat)
	}
	return c, nil
}

// Find はIDでカテゴリを検索する。
func (c *Catalog) Find(id int) (model.Category, bool) {
	cat, ok := c.byID[id]
	return cat, ok
}

// All は全カテゴリを定義順で返す。戻り値は呼び出し側で変更してよいコピー。
func (c *Catalog) All() []model.Category {
	out := make([]model.Category, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len はカテゴリ数を返す。
func (c *Catalog) Len() int {
	return len(c.ordered)
}

func toCategories(entries []categoryEntry) []model.Category {
	out := make([]model.Category, len(entries))
	for i, e := range entries {
		out[i] = model.Category{ID: e.ID, Label: e.Label}
	}
	return out
}
