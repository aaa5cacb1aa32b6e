package caldav

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Fixed request bodies. The protocol surface here is small enough that
// templating a full WebDAV property model would be overkill.

const propfindCalendarsBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:displayname/>
    <d:resourcetype/>
  </d:prop>
</d:propfind>`

const calendarQueryBody = `<?xml version="1.0" encoding="utf-8"?>
<c:calendar-query xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:getetag/>
    <c:calendar-data/>
  </d:prop>
  <c:filter>
    <c:comp-filter name="VCALENDAR">
      <c:comp-filter name="VEVENT"/>
    </c:comp-filter>
  </c:filter>
</c:calendar-query>`

// mkcalendarBody builds the MKCALENDAR request with the display name
// escaped into the XML body.
func mkcalendarBody(name string) []byte {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(name))

	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<c:mkcalendar xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">`)
	b.WriteString(`<d:set><d:prop><d:displayname>`)
	b.Write(escaped.Bytes())
	b.WriteString(`</d:displayname></d:prop></d:set>`)
	b.WriteString(`</c:mkcalendar>`)
	return b.Bytes()
}

// multistatus models the subset of a 207 response body we consume.
type multistatus struct {
	XMLName   xml.Name     `xml:"DAV: multistatus"`
	Responses []msResponse `xml:"DAV: response"`
}

type msResponse struct {
	Href      string       `xml:"DAV: href"`
	Propstats []msPropstat `xml:"DAV: propstat"`
}

type msPropstat struct {
	Status string `xml:"DAV: status"`
	Prop   msProp `xml:"DAV: prop"`
}

type msProp struct {
	DisplayName  string          `xml:"DAV: displayname"`
	ResourceType *msResourceType `xml:"DAV: resourcetype"`
	CalendarData string          `xml:"urn:ietf:params:xml:ns:caldav calendar-data"`
}

type msResourceType struct {
	Calendar *struct{} `xml:"urn:ietf:params:xml:ns:caldav calendar"`
}

// okProp returns the prop block of the 2xx propstat, if any.
func (r msResponse) okProp() (msProp, bool) {
	for _, ps := range r.Propstats {
		if strings.Contains(ps.Status, " 200 ") {
			return ps.Prop, true
		}
	}
	return msProp{}, false
}

func parseMultistatus(r io.Reader) (*multistatus, error) {
	var ms multistatus
	if err := xml.NewDecoder(r).Decode(&ms); err != nil {
		return nil, err
	}
	return &ms, nil
}
