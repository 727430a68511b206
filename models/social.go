package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SocialLinks is the single internal shape of a profile's social links.
// Clients send either a flat object ({"facebook": "..."}) or an array of
// tagged items ([{"type": "facebook", "link": "..."}]); both decode here.
type SocialLinks struct {
	Facebook  *string `bson:"facebook" json:"facebook"`
	Twitter   *string `bson:"twitter" json:"twitter"`
	Instagram *string `bson:"instagram" json:"instagram"`
	Youtube   *string `bson:"youtube" json:"youtube"`
	Web       *string `bson:"web" json:"web"`
}

type socialItem struct {
	Type string `json:"type"`
	Link string `json:"link"`
}

func (s *SocialLinks) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" || trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []socialItem
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("social: %w", err)
		}
		for _, it := range items {
			if err := s.Set(it.Type, it.Link); err != nil {
				return err
			}
		}
		return nil
	}
	var flat map[string]*string
	if err := json.Unmarshal(b, &flat); err != nil {
		return fmt.Errorf("social: %w", err)
	}
	for k, v := range flat {
		link := ""
		if v != nil {
			link = *v
		}
		if err := s.Set(k, link); err != nil {
			return err
		}
	}
	return nil
}

// Set assigns one link by platform name; an empty link clears it.
func (s *SocialLinks) Set(kind, link string) error {
	var v *string
	if link = strings.TrimSpace(link); link != "" {
		v = &link
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "facebook":
		s.Facebook = v
	case "twitter", "x":
		s.Twitter = v
	case "instagram":
		s.Instagram = v
	case "youtube":
		s.Youtube = v
	case "web", "website":
		s.Web = v
	default:
		return fmt.Errorf("social: unknown platform %q", kind)
	}
	return nil
}
