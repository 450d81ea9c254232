package storage

import "encoding/xml"

// EPUB package document (content.opf) and navigation (toc.ncx) models.
// Only the Dublin Core subset the artifact actually carries is modeled.

type packageDocument struct {
	XMLName          xml.Name `xml:"package"`
	Xmlns            string   `xml:"xmlns,attr"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`

	Metadata dcMetadata `xml:"metadata"`
	Manifest manifest   `xml:"manifest"`
	Spine    spine      `xml:"spine"`
	Guide    *guide     `xml:"guide,omitempty"`
}

type dcMetadata struct {
	XmlnsDC  string `xml:"xmlns:dc,attr"`
	XmlnsOPF string `xml:"xmlns:opf,attr"`

	Titles       []dcValue      `xml:"dc:title"`
	Identifiers  []dcIdentifier `xml:"dc:identifier"`
	Languages    []dcValue      `xml:"dc:language"`
	Creators     []dcCreator    `xml:"dc:creator"`
	Descriptions []dcValue      `xml:"dc:description"`
	Publishers   []dcValue      `xml:"dc:publisher"`
	Sources      []dcValue      `xml:"dc:source"`
	Subjects     []dcValue      `xml:"dc:subject"`
	Dates        []dcDate       `xml:"dc:date"`
	Metas        []opfMeta      `xml:"meta"`
}

type dcValue struct {
	Value string `xml:",chardata"`
}

type dcIdentifier struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr,omitempty"`
	Scheme string `xml:"opf:scheme,attr,omitempty"`
}

type dcCreator struct {
	Value  string `xml:",chardata"`
	Role   string `xml:"opf:role,attr,omitempty"`
	FileAs string `xml:"opf:file-as,attr,omitempty"`
}

type dcDate struct {
	Value string `xml:",chardata"`
	Event string `xml:"opf:event,attr,omitempty"`
}

type opfMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Property string `xml:"property,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type manifest struct {
	Items []manifestItem `xml:"item"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Link       string `xml:"href,attr"`
	Media      string `xml:"media-type,attr,omitempty"`
	Properties string `xml:"properties,attr,omitempty"`
}

type spine struct {
	Toc   string      `xml:"toc,attr,omitempty"`
	Items []spineItem `xml:"itemref"`
}

type spineItem struct {
	IDref string `xml:"idref,attr"`
}

type guide struct {
	Items []guideItem `xml:"reference"`
}

type guideItem struct {
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
	Link  string `xml:"href,attr"`
}

// toc.ncx

type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	Xmlns   string   `xml:"xmlns,attr"`
	Version string   `xml:"version,attr"`

	Head     ncxHead `xml:"head"`
	DocTitle ncxText `xml:"docTitle"`
	NavMap   ncxNav  `xml:"navMap"`
}

type ncxHead struct {
	Metas []ncxMeta `xml:"meta"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxText struct {
	Text string `xml:"text"`
}

type ncxNav struct {
	Points []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string          `xml:"id,attr"`
	PlayOrder int             `xml:"playOrder,attr"`
	Label     string          `xml:"navLabel>text"`
	Content   navPointContent `xml:"content"`
}

type navPointContent struct {
	Src string `xml:"src,attr"`
}
