// =============================================================================
// Bill Generator - XML Writer
// =============================================================================
//
// Renders a computed bill as an XML document:
//
//   <bill runId="..." source="...">
//     <firstPage>
//       <header><row n="1"><cell n="1">...</cell></row></header>
//       <workOrderItems><item n="1">...</item></workOrderItems>
//       <extraItems><item n="1">...</item></extraItems>
//       <totals>...</totals>
//     </firstPage>
//     <lastPage>...</lastPage>
//     <deviation><items>...</items><summary>...</summary></deviation>
//     <extraItemsStatement>...</extraItemsStatement>
//     <noteSheet>...</noteSheet>
//   </bill>
//
// Suppressed items and degenerate deviation rows carry suppressed="true" and
// no numeric children. Amounts are written as plain decimals.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/ginjaninja78/bill-generator/internal/bill"
	"github.com/shopspring/decimal"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions configures the XML output.
type GenerateOptions struct {
	// Indent is the string used for each level of indentation.
	Indent string

	// IncludeXMLDeclaration adds <?xml version="1.0" encoding="UTF-8"?>.
	IncludeXMLDeclaration bool

	XMLVersion string
	Encoding   string

	// RootElement is the name of the document element.
	RootElement string

	// RootAttributes are written on the document element in key order.
	RootAttributes map[string]string

	// IndexAttribute numbers repeated elements (rows, items, notes).
	IndexAttribute string
}

// DefaultGenerateOptions returns the default options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootElement:           "bill",
		RootAttributes:        make(map[string]string),
		IndexAttribute:        "n",
	}
}

// =============================================================================
// MAIN GENERATION
// =============================================================================

// Generate renders res with the default options.
func Generate(res *bill.Result) ([]byte, error) {
	return GenerateWithOptions(res, DefaultGenerateOptions())
}

// GenerateWithOptions renders res.
func GenerateWithOptions(res *bill.Result, options GenerateOptions) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("no bill to render")
	}

	var buffer bytes.Buffer
	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	b := builder{index: options.IndexAttribute}
	root := XMLElement{
		XMLName: xml.Name{Local: options.RootElement},
		Children: []XMLElement{
			b.firstPage(res.FirstPage),
			b.lastPage(res.LastPage),
			b.deviation(res.Deviation),
			b.items("extraItemsStatement", res.ExtraItems.Items),
			b.noteSheet(res.NoteSheet),
		},
	}

	keys := make([]string, 0, len(options.RootAttributes))
	for k := range options.RootAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		root.Attributes = append(root.Attributes, xml.Attr{
			Name:  xml.Name{Local: k},
			Value: options.RootAttributes[k],
		})
	}

	writeElement(&buffer, root, options.Indent, 0)
	return buffer.Bytes(), nil
}

// =============================================================================
// XML ELEMENT STRUCTURE
// =============================================================================

// XMLElement is a generic XML element. It holds either a text value or
// children, never both.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// =============================================================================
// DOCUMENT BUILDING
// =============================================================================

type builder struct {
	index string
}

func (b builder) firstPage(fp bill.FirstPage) XMLElement {
	header := element("header")
	for i, row := range fp.Header {
		r := b.indexed("row", i+1)
		for j, cell := range row {
			c := b.indexed("cell", j+1)
			c.Value = cell
			r.Children = append(r.Children, c)
		}
		header.Children = append(header.Children, r)
	}

	return element("firstPage",
		header,
		b.items("workOrderItems", fp.WorkOrderItems),
		withAttr(b.items("extraItems", fp.ExtraItems), "label", bill.ExtraItemsLabel),
		totals(fp.Totals),
	)
}

func (b builder) items(name string, items []bill.LineItem) XMLElement {
	list := element(name)
	for i, item := range items {
		e := b.indexed("item", i+1)
		e.Children = append(e.Children,
			text("serialNo", item.SerialNo),
			text("description", item.Description),
		)
		if item.Suppressed() {
			e = withAttr(e, "suppressed", "true")
		} else {
			d := item.Detail
			e.Children = append(e.Children,
				text("unit", d.Unit),
				number("quantity", d.Quantity),
				number("rate", d.Rate),
				number("amount", d.Amount),
			)
		}
		e.Children = append(e.Children, text("remark", item.Remark))
		list.Children = append(list.Children, e)
	}
	return list
}

func totals(t bill.BillTotals) XMLElement {
	premium := element("premium",
		number("percent", t.Premium.Percent),
		text("direction", t.Premium.Direction.String()),
		number("amount", t.Premium.Amount),
	)
	return element("totals",
		number("grandTotal", t.GrandTotal),
		premium,
		number("payable", t.Payable),
		number("extraItemsSum", t.ExtraItemsSum),
	)
}

func (b builder) lastPage(lp bill.LastPage) XMLElement {
	return element("lastPage",
		number("payableAmount", lp.PayableAmount),
		text("amountWords", lp.AmountWords),
	)
}

func (b builder) deviation(dev bill.Deviation) XMLElement {
	items := element("items")
	for i, item := range dev.Items {
		e := b.indexed("item", i+1)
		e.Children = append(e.Children,
			text("serialNo", item.SerialNo),
			text("description", item.Description),
		)
		if item.Degenerate() {
			e = withAttr(e, "suppressed", "true")
		} else {
			d := item.Detail
			e.Children = append(e.Children,
				text("unit", d.Unit),
				number("qtyPlanned", d.QtyPlanned),
				number("rate", d.Rate),
				number("amtPlanned", d.AmtPlanned),
				number("qtyExecuted", d.QtyExecuted),
				number("amtExecuted", d.AmtExecuted),
				number("excessQty", d.ExcessQty),
				number("excessAmt", d.ExcessAmt),
				number("savingQty", d.SavingQty),
				number("savingAmt", d.SavingAmt),
			)
		}
		e.Children = append(e.Children, text("remark", item.Remark))
		items.Children = append(items.Children, e)
	}

	s := dev.Summary
	summary := element("summary",
		number("premiumPercent", s.PremiumPercent),
		text("direction", s.Direction.String()),
		rollup("workOrder", s.WorkOrder),
		rollup("executed", s.Executed),
		rollup("excess", s.Excess),
		rollup("saving", s.Saving),
		withAttr(number("netDifference", s.NetDifference), "label", s.NetLabel()),
	)

	return element("deviation", items, summary)
}

func rollup(name string, r bill.Rollup) XMLElement {
	return element(name,
		number("total", r.Total),
		number("premium", r.Premium),
		number("grandTotal", r.GrandTotal),
	)
}

func (b builder) noteSheet(ns bill.NoteSheet) XMLElement {
	a := ns.Agreement
	agreement := element("agreement",
		text("agreementNo", a.AgreementNo),
		text("nameOfWork", a.NameOfWork),
		text("nameOfFirm", a.NameOfFirm),
		text("dateCommencement", a.DateCommencement),
		text("dateCompletion", a.DateCompletion),
		text("actualCompletion", a.DateActualCompletion),
	)

	notes := element("notes")
	for i, n := range ns.Notes {
		e := b.indexed("note", i+1)
		e.Value = n
		notes.Children = append(notes.Children, e)
	}

	e := element("noteSheet",
		agreement,
		number("workOrderAmount", ns.WorkOrderAmount),
		number("extraItemAmount", ns.ExtraItemAmount),
		notes,
	)
	if ns.WorkOrderAmountError != "" {
		e.Children = append(e.Children, text("workOrderAmountError", ns.WorkOrderAmountError))
	}
	return e
}

// =============================================================================
// ELEMENT HELPERS
// =============================================================================

func element(name string, children ...XMLElement) XMLElement {
	return XMLElement{XMLName: xml.Name{Local: name}, Children: children}
}

func text(name, value string) XMLElement {
	return XMLElement{XMLName: xml.Name{Local: name}, Value: value}
}

func number(name string, value decimal.Decimal) XMLElement {
	return text(name, value.String())
}

func withAttr(e XMLElement, name, value string) XMLElement {
	e.Attributes = append(e.Attributes, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return e
}

func (b builder) indexed(name string, n int) XMLElement {
	return withAttr(element(name), b.index, fmt.Sprintf("%d", n))
}

// =============================================================================
// XML SERIALIZATION
// =============================================================================

// writeElement writes an element and its children with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value)))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")
	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes the five predefined XML entities.
func escapeXML(s string) string {
	var buffer bytes.Buffer
	if err := xml.EscapeText(&buffer, []byte(s)); err != nil {
		return s
	}
	return buffer.String()
}
