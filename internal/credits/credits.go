// Package credits 把扁平的职员/演员列表按角色标签分桶。
package credits

import "github.com/John-Robertt/daummeta/internal/domain"

// Bucket 是职员分类。
type Bucket int

const (
	None Bucket = iota
	Director
	Producer
	Writer
	Performer
)

var labels = map[string]Bucket{
	"감독": Director,
	"연출": Director,
	"제작": Producer,
	"극본": Writer,
	"각본": Writer,
	"주연": Performer,
	"조연": Performer,
	"출연": Performer,
	"진행": Performer,
}

// BucketOf 返回角色标签所属的桶；未知标签返回 None。
func BucketOf(label string) Bucket { return labels[label] }

// Entry 是站点给出的一条职员记录。
type Entry struct {
	Label     string // castcrewCastName，例如 "감독"
	RoleTitle string // castcrewTitleKo，演员的具体角色
	NameKo    string
	NameEn    string
	Photo     string
}

// Name 优先韩文名，缺失时回退英文名。
func (e Entry) Name() string {
	if e.NameKo != "" {
		return e.NameKo
	}
	return e.NameEn
}

// Credits 是分桶结果；各桶保持源顺序，不去重。
type Credits struct {
	Directors []domain.Person
	Producers []domain.Person
	Writers   []domain.Person
	Roles     []domain.Role
}

// Classify 按源顺序分桶；不属于任何桶的条目被丢弃。
func Classify(entries []Entry) Credits {
	var c Credits
	for _, e := range entries {
		switch BucketOf(e.Label) {
		case Director:
			c.Directors = append(c.Directors, domain.Person{Name: e.Name(), Photo: e.Photo})
		case Producer:
			c.Producers = append(c.Producers, domain.Person{Name: e.Name(), Photo: e.Photo})
		case Writer:
			c.Writers = append(c.Writers, domain.Person{Name: e.Name(), Photo: e.Photo})
		case Performer:
			c.Roles = append(c.Roles, domain.Role{Role: e.RoleTitle, Name: e.Name(), Photo: e.Photo})
		}
	}
	return c
}

// Replace 是集合字段的替换语义：next 为空时原样返回 current，否则整体替换为 next。
func Replace[T any](current, next []T) []T {
	if len(next) == 0 {
		return current
	}
	return append([]T(nil), next...)
}

// Apply 把分桶结果写入 rec。空桶不会清空 rec 中已有的对应集合。
func Apply(rec *domain.MetadataRecord, c Credits) {
	rec.Directors = Replace(rec.Directors, c.Directors)
	rec.Producers = Replace(rec.Producers, c.Producers)
	rec.Writers = Replace(rec.Writers, c.Writers)
	rec.Roles = Replace(rec.Roles, c.Roles)
}
