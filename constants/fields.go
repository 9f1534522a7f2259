package constants

import "slices"

// Canonical field names of a service ticket, in output order.
const (
	FieldCliente       = "Cliente"
	FieldData          = "Data"
	FieldTelefone      = "Telefone"
	FieldMarca         = "Marca"
	FieldModelo        = "Modelo"
	FieldMotor         = "Motor"
	FieldPlaca         = "Placa"
	FieldAno           = "Ano"
	FieldServico       = "Serviço"
	FieldQuantidade    = "Quantidade"
	FieldValorUnitario = "Valor Unitário"
	FieldValorTotal    = "Valor Total"
	FieldDesconto      = "Desconto"
	FieldTotalFinal    = "Total Final"
	FieldGarantia      = "Garantia"
)

// FileKey names the source file of an accepted record. It is never a schema field.
const FileKey = "Arquivo"

var fieldOrder = []string{
	FieldCliente,
	FieldData,
	FieldTelefone,
	FieldMarca,
	FieldModelo,
	FieldMotor,
	FieldPlaca,
	FieldAno,
	FieldServico,
	FieldQuantidade,
	FieldValorUnitario,
	FieldValorTotal,
	FieldDesconto,
	FieldTotalFinal,
	FieldGarantia,
}

// MoneyFields are the fields the vision prompt asks to be returned without currency symbols.
var MoneyFields = []string{FieldValorUnitario, FieldValorTotal, FieldDesconto, FieldTotalFinal}

// FieldNames returns the schema keys in canonical order. The slice is a copy.
func FieldNames() []string {
	return slices.Clone(fieldOrder)
}

// IsField reports whether name is one of the schema keys.
func IsField(name string) bool {
	return slices.Contains(fieldOrder, name)
}
