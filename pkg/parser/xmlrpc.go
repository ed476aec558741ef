package parser

import (
	"encoding/xml"
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

type methodResponse struct {
	XMLName xml.Name   `xml:"methodResponse"`
	Params  []xmlValue `xml:"params>param>value"`
	Fault   *xmlValue  `xml:"fault>value"`
}

type xmlValue struct {
	String  *string     `xml:"string"`
	Int     *string     `xml:"int"`
	I4      *string     `xml:"i4"`
	Double  *string     `xml:"double"`
	Boolean *string     `xml:"boolean"`
	Array   []xmlValue  `xml:"array>data>value"`
	Members []xmlMember `xml:"struct>member"`
	Text    string      `xml:",chardata"`
}

type xmlMember struct {
	Name  string   `xml:"name"`
	Value xmlValue `xml:"value"`
}

func (v xmlValue) scalar() string {
	for _, p := range []*string{v.String, v.Int, v.I4, v.Double, v.Boolean} {
		if p != nil {
			return strings.TrimSpace(*p)
		}
	}
	return strings.TrimSpace(v.Text)
}

// ParseXMLRPC parses an XML-RPC methodResponse whose single parameter is an
// array of structs with name, version and summary members, as returned by
// the Python package index search method. Faults and malformed documents
// yield no records.
func ParseXMLRPC(raw string) []core.PackageRecord {
	records := []core.PackageRecord{}

	var resp methodResponse
	if err := xml.Unmarshal([]byte(raw), &resp); err != nil {
		return records
	}
	if resp.Fault != nil || len(resp.Params) == 0 {
		return records
	}

	for _, item := range resp.Params[0].Array {
		fields := make(map[string]string, len(item.Members))
		for _, m := range item.Members {
			fields[m.Name] = m.Value.scalar()
		}
		if fields["name"] == "" {
			continue
		}
		records = append(records, core.NewRecord(fields["name"], fields["version"], "", fields["summary"]))
	}
	return records
}
