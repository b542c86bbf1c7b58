package services

import (
	"io"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/MightyWarner19/grainlly/models"
)

var orderExportHeaders = []string{
	"Order ID", "User ID", "Date", "Items", "Quantity", "Subtotal", "Surcharge",
	"Amount", "Payment Method", "Payment Status", "Status", "Name", "Phone",
	"Area", "City", "State", "Pincode", "Gateway Order ID",
}

// ExportOrdersXLSX writes orders as a single-sheet workbook.
func ExportOrdersXLSX(w io.Writer, orders []models.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		names := make([]string, 0, len(o.Items))
		qty := 0
		for _, it := range o.Items {
			names = append(names, it.Name)
			qty += it.Quantity
		}

		row := sheet.AddRow()
		row.AddCell().SetString(o.ID.Hex())
		row.AddCell().SetString(o.UserID)
		row.AddCell().SetString(time.UnixMilli(o.Date).UTC().Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(strings.Join(names, ", "))
		row.AddCell().SetInt(qty)
		row.AddCell().SetFloat(o.Subtotal)
		row.AddCell().SetFloat(o.Surcharge)
		row.AddCell().SetFloat(o.Amount)
		row.AddCell().SetString(string(o.PaymentMethod))
		row.AddCell().SetString(string(o.PaymentStatus))
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(o.Address.FullName)
		row.AddCell().SetString(o.Address.PhoneNumber)
		row.AddCell().SetString(o.Address.Area)
		row.AddCell().SetString(o.Address.City)
		row.AddCell().SetString(o.Address.State)
		row.AddCell().SetString(o.Address.Pincode)
		row.AddCell().SetString(o.GatewayOrderID)
	}

	return file.Write(w)
}
