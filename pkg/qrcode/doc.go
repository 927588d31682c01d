// Package qrcode renders the table QR codes that link customers to a
// restaurant's public menu.
//
//	png, err := qrcode.MenuQR("https://menu.tabledash.app", "biz_123", 512)
//
// Callers gate generation on subscription access; the package itself only
// builds the link and encodes it.
package qrcode
