package export

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"deckforge/internal/domain"
)

// Print-service order brackets. An order is priced at the smallest
// bracket that fits its card count.
var orderBrackets = []int{18, 36, 55, 72, 90, 108, 126, 144, 162, 180, 198, 216, 234, 396, 504, 612}

const defaultCardstock = "(S30) Standard Smooth"

// ErrEmptyProject is returned when there are no slots to put in an order.
var ErrEmptyProject = errors.New("project has no slots to export")

// DocumentLookup resolves an image identifier to its metadata record.
// A miss is fine; the order then carries the identifier alone.
type DocumentLookup func(identifier string) (domain.CardDocument, bool)

type orderXML struct {
	XMLName  xml.Name     `xml:"order"`
	Details  orderDetails `xml:"details"`
	Fronts   orderFace    `xml:"fronts"`
	Backs    orderFace    `xml:"backs"`
	Cardback string       `xml:"cardback"`
}

type orderDetails struct {
	Quantity int    `xml:"quantity"`
	Bracket  int    `xml:"bracket"`
	Stock    string `xml:"stock"`
	Foil     bool   `xml:"foil"`
}

type orderFace struct {
	Cards []orderCard `xml:"card"`
}

type orderCard struct {
	ID    string `xml:"id"`
	Slots string `xml:"slots"`
	Name  string `xml:"name,omitempty"`
	Query string `xml:"query,omitempty"`
}

// OrderXML renders the project as a print-service order file, the format
// the desktop ordering tool consumes. Each face lists its cards grouped
// by selected image with the slot numbers they fill. Back slots showing
// the project cardback are left out; the order-wide cardback element
// fills them on the ordering side.
func OrderXML(p domain.Project, lookup DocumentLookup) ([]byte, error) {
	if len(p.Slots) == 0 {
		return nil, ErrEmptyProject
	}
	if lookup == nil {
		lookup = func(string) (domain.CardDocument, bool) { return domain.CardDocument{}, false }
	}

	order := orderXML{
		Details: orderDetails{
			Quantity: len(p.Slots),
			Bracket:  bracketFor(len(p.Slots)),
			Stock:    defaultCardstock,
		},
		Fronts:   orderFace{Cards: groupFace(p, domain.FaceFront, lookup)},
		Backs:    orderFace{Cards: groupFace(p, domain.FaceBack, lookup)},
		Cardback: p.Cardback,
	}

	out, err := xml.MarshalIndent(order, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to render order: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func bracketFor(quantity int) int {
	for _, b := range orderBrackets {
		if quantity <= b {
			return b
		}
	}
	return orderBrackets[len(orderBrackets)-1]
}

func groupFace(p domain.Project, face domain.Face, lookup DocumentLookup) []orderCard {
	slotsByImage := make(map[string][]int)
	var seen []string
	for i, slot := range p.Slots {
		m := slot.Member(face)
		if m == nil || m.SelectedImage == "" {
			continue
		}
		if face == domain.FaceBack && m.SelectedImage == p.Cardback {
			continue
		}
		if _, ok := slotsByImage[m.SelectedImage]; !ok {
			seen = append(seen, m.SelectedImage)
		}
		slotsByImage[m.SelectedImage] = append(slotsByImage[m.SelectedImage], i)
	}

	cards := make([]orderCard, 0, len(seen))
	for _, id := range seen {
		slots := slotsByImage[id]
		card := orderCard{ID: id, Slots: joinSlots(slots)}
		if doc, ok := lookup(id); ok {
			card.Name = imageFileName(doc)
		}
		if q := memberQuery(p.Slots[slots[0]].Member(face)); q != nil {
			card.Query = q.Text
		}
		cards = append(cards, card)
	}
	return cards
}

func joinSlots(slots []int) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}

func imageFileName(doc domain.CardDocument) string {
	if doc.Extension == "" {
		return doc.Name
	}
	return doc.Name + "." + doc.Extension
}
