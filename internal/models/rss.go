package models

import "encoding/xml"

// RSS is the root element of an RSS 2.0 document.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel holds the feed title and its items.
type Channel struct {
	Title string `xml:"title"`
	Items []Item `xml:"item"`
}

// Item is a single feed entry. Every field may be missing.
// Source is set by aggregators such as Google News, which name the original outlet per item.
type Item struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	PubDate     string     `xml:"pubDate"`
	Link        string     `xml:"link"`
	Source      ItemSource `xml:"source"`
}

// ItemSource is the <source url="...">Name</source> element.
type ItemSource struct {
	URL  string `xml:"url,attr"`
	Name string `xml:",chardata"`
}
