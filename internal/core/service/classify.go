package service

import (
	"strings"

	"github.com/titantech/kyc-gateway/internal/core/domain"
)

// matchStrength ranks how a document was recognised. Higher wins.
type matchStrength int

const (
	noMatch matchStrength = iota
	nameMatch
	typeMatch
)

// Classification holds the file ids picked for each required document.
type Classification struct {
	AadhaarFileID string
	PANFileID     string
}

// Missing lists the required documents that were not found, Aadhaar first.
func (c Classification) Missing() []string {
	var missing []string
	if c.AadhaarFileID == "" {
		missing = append(missing, domain.DocumentAadhaar)
	}
	if c.PANFileID == "" {
		missing = append(missing, domain.DocumentPAN)
	}
	return missing
}

// ClassifyDocuments picks one Aadhaar and one PAN document from a vendor listing.
//
// A doc_type code match beats a name or description match. Between documents
// of equal strength the earliest one in the listing wins. A document only
// competes for Aadhaar when it matches Aadhaar at least as strongly as PAN, so
// a PANCR record that mentions Aadhaar stays a PAN candidate. The document
// picked as Aadhaar is never also used as the PAN document.
func ClassifyDocuments(docs []domain.Document) Classification {
	var out Classification

	var best matchStrength
	for _, d := range docs {
		if d.FileID == "" {
			continue
		}
		s := aadhaarMatch(d)
		if s > best && s >= panMatch(d) {
			out.AadhaarFileID, best = d.FileID, s
		}
	}

	best = noMatch
	for _, d := range docs {
		if d.FileID == "" || d.FileID == out.AadhaarFileID {
			continue
		}
		if s := panMatch(d); s > best {
			out.PANFileID, best = d.FileID, s
		}
	}
	return out
}

func aadhaarMatch(d domain.Document) matchStrength {
	if strings.EqualFold(d.DocType, domain.DocTypeAadhaar) {
		return typeMatch
	}
	text := strings.ToLower(d.Name + " " + d.Description)
	if strings.Contains(text, "aadhaar") || strings.Contains(text, "aadhar") {
		return nameMatch
	}
	return noMatch
}

func panMatch(d domain.Document) matchStrength {
	if strings.EqualFold(d.DocType, domain.DocTypePAN) {
		return typeMatch
	}
	if strings.Contains(strings.ToLower(d.Name), "pan") ||
		strings.Contains(strings.ToLower(d.Description), "pan verification") {
		return nameMatch
	}
	return noMatch
}
