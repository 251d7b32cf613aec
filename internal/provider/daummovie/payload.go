package daummovie

import (
	"encoding/json"
	"strings"

	"github.com/John-Robertt/daummeta/internal/artwork"
	"github.com/John-Robertt/daummeta/internal/credits"
)

// flexString 兼容站点 JSON 中时而是数字、时而是字符串的字段（movieId、prodYear、photoCategory）。
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type searchResponse struct {
	Data []struct {
		MovieID  flexString `json:"movieId"`
		TitleKo  string     `json:"titleKo"`
		ProdYear flexString `json:"prodYear"`
	} `json:"data"`
}

type castResponse struct {
	Data []struct {
		CastCrew struct {
			CastName string `json:"castcrewCastName"`
			TitleKo  string `json:"castcrewTitleKo"`
		} `json:"castcrew"`
		NameKo string `json:"nameKo"`
		NameEn string `json:"nameEn"`
		Photo  struct {
			Fullname string `json:"fullname"`
		} `json:"photo"`
	} `json:"data"`
}

func (r castResponse) entries() []credits.Entry {
	out := make([]credits.Entry, 0, len(r.Data))
	for _, d := range r.Data {
		out = append(out, credits.Entry{
			Label:     strings.TrimSpace(d.CastCrew.CastName),
			RoleTitle: strings.TrimSpace(d.CastCrew.TitleKo),
			NameKo:    strings.TrimSpace(d.NameKo),
			NameEn:    strings.TrimSpace(d.NameEn),
			Photo:     strings.TrimSpace(d.Photo.Fullname),
		})
	}
	return out
}

type photoResponse struct {
	Data []struct {
		Category  flexString `json:"photoCategory"`
		Fullname  string     `json:"fullname"`
		Thumbnail string     `json:"thumbnail"`
	} `json:"data"`
}

func (r photoResponse) photos() []artwork.Photo {
	out := make([]artwork.Photo, 0, len(r.Data))
	for _, d := range r.Data {
		out = append(out, artwork.Photo{
			Category:  string(d.Category),
			FullURL:   strings.TrimSpace(d.Fullname),
			Thumbnail: strings.TrimSpace(d.Thumbnail),
		})
	}
	return out
}
