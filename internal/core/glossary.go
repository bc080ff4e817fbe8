package core

// ColumnInfo describes one dataset column for the glossary panel.
type ColumnInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Glossary returns the column descriptions shown under "¿Qué significa cada columna?".
func Glossary() []ColumnInfo {
	return []ColumnInfo{
		{ColOrderCode, "Código de la orden de compra."},
		{ColRegion, "Región de la unidad compradora."},
		{ColInstitution, "Municipalidad u organismo comprador."},
		{ColSupplier, "Nombre del proveedor adjudicado."},
		{ColSupplierSize, "Clasificación de tamaño del proveedor."},
		{ColNetAmount, "Monto neto del ítem sin impuestos."},
		{ColCurrency, "Moneda utilizada en la compra."},
		{ColQuantity, "Cantidad adquirida del ítem."},
	}
}
