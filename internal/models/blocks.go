package models

import (
	"encoding/json"
	"fmt"
)

// BlockType discriminates the Block variants on the wire
type BlockType string

const (
	BlockContactInfo  BlockType = "contact_info"
	BlockSectionTitle BlockType = "section_title"
	BlockText         BlockType = "text"
	BlockExperience   BlockType = "experience_group"
	BlockEducation    BlockType = "education_group"
	BlockSkills       BlockType = "skills_group"
	BlockCertificates BlockType = "certificates_group"
	BlockProject      BlockType = "project_group"
)

// Block is one semantic unit of a structured resume. The set of
// implementations is closed; consumers switch on the concrete type.
type Block interface {
	Type() BlockType
	isBlock()
}

// ContactInfo holds the candidate name and contact lines
type ContactInfo struct {
	Name  string   `json:"name,omitempty"`
	Lines []string `json:"lines"`
}

// SectionTitle is a section header kept verbatim
type SectionTitle struct {
	Text string `json:"text"`
}

// Text is a plain line that belongs to no grouped section
type Text struct {
	Text string `json:"text"`
}

// ExperienceGroup is one job entry
type ExperienceGroup struct {
	Company string   `json:"company"`
	Header  string   `json:"header"`
	Title   string   `json:"title,omitempty"`
	Bullets []string `json:"bullets"`
}

// EducationGroup is one education entry
type EducationGroup struct {
	Degree  string   `json:"degree"`
	Details []string `json:"details"`
}

// SkillsGroup collects every skill of a skills section
type SkillsGroup struct {
	Skills []string `json:"skills"`
}

// CertificatesGroup collects every certificate of a section
type CertificatesGroup struct {
	Certificates []string `json:"certificates"`
}

// ProjectGroup is one project or training entry
type ProjectGroup struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

func (ContactInfo) Type() BlockType       { return BlockContactInfo }
func (SectionTitle) Type() BlockType      { return BlockSectionTitle }
func (Text) Type() BlockType              { return BlockText }
func (ExperienceGroup) Type() BlockType   { return BlockExperience }
func (EducationGroup) Type() BlockType    { return BlockEducation }
func (SkillsGroup) Type() BlockType       { return BlockSkills }
func (CertificatesGroup) Type() BlockType { return BlockCertificates }
func (ProjectGroup) Type() BlockType      { return BlockProject }

func (ContactInfo) isBlock()       {}
func (SectionTitle) isBlock()      {}
func (Text) isBlock()              {}
func (ExperienceGroup) isBlock()   {}
func (EducationGroup) isBlock()    {}
func (SkillsGroup) isBlock()       {}
func (CertificatesGroup) isBlock() {}
func (ProjectGroup) isBlock()      {}

// nonNil keeps empty lists encoding as [] rather than null
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (b ContactInfo) MarshalJSON() ([]byte, error) {
	type alias ContactInfo
	b.Lines = nonNil(b.Lines)
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b SectionTitle) MarshalJSON() ([]byte, error) {
	type alias SectionTitle
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b ExperienceGroup) MarshalJSON() ([]byte, error) {
	type alias ExperienceGroup
	b.Bullets = nonNil(b.Bullets)
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b EducationGroup) MarshalJSON() ([]byte, error) {
	type alias EducationGroup
	b.Details = nonNil(b.Details)
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b SkillsGroup) MarshalJSON() ([]byte, error) {
	type alias SkillsGroup
	b.Skills = nonNil(b.Skills)
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b CertificatesGroup) MarshalJSON() ([]byte, error) {
	type alias CertificatesGroup
	b.Certificates = nonNil(b.Certificates)
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

func (b ProjectGroup) MarshalJSON() ([]byte, error) {
	type alias ProjectGroup
	b.Bullets = nonNil(b.Bullets)
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		alias
	}{b.Type(), alias(b)})
}

// Blocks is an ordered Block sequence that decodes by "type"
type Blocks []Block

// MarshalJSON encodes a nil sequence as []
func (bs Blocks) MarshalJSON() ([]byte, error) {
	if bs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(bs))
}

// UnmarshalJSON decodes each element with UnmarshalBlock
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("failed to decode block list: %w", err)
	}

	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := UnmarshalBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

// UnmarshalBlock decodes a single block, dispatching on its type field
func UnmarshalBlock(data []byte) (Block, error) {
	var head struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode block: %w", err)
	}

	var (
		b   Block
		err error
	)
	switch head.Type {
	case BlockContactInfo:
		var v ContactInfo
		err = json.Unmarshal(data, &v)
		b = v
	case BlockSectionTitle:
		var v SectionTitle
		err = json.Unmarshal(data, &v)
		b = v
	case BlockText:
		var v Text
		err = json.Unmarshal(data, &v)
		b = v
	case BlockExperience:
		var v ExperienceGroup
		err = json.Unmarshal(data, &v)
		b = v
	case BlockEducation:
		var v EducationGroup
		err = json.Unmarshal(data, &v)
		b = v
	case BlockSkills:
		var v SkillsGroup
		err = json.Unmarshal(data, &v)
		b = v
	case BlockCertificates:
		var v CertificatesGroup
		err = json.Unmarshal(data, &v)
		b = v
	case BlockProject:
		var v ProjectGroup
		err = json.Unmarshal(data, &v)
		b = v
	case "":
		return nil, fmt.Errorf("block is missing a type")
	default:
		return nil, fmt.Errorf("unknown block type %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s block: %w", head.Type, err)
	}
	return b, nil
}

// BlockDocument is the Block-sequence JSON envelope
type BlockDocument struct {
	Blocks Blocks `json:"blocks"`
}
