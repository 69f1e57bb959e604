package imt

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const salesHeader = "Data_Hora;Valor_Venda;Valor_Pago;Meio_de_Pagamento;Loja;Nome_Cliente;Doc_Cliente;Telefone;Maquinas;Usou_Cupom;Codigo_Cupom"

func TestCleanPayload(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"plain data untouched", "Data_Hora;Maquinas\nrow", "Data_Hora;Maquinas\nrow"},
		{"strips BOM", "\xef\xbb\xbfData_Hora;Maquinas", "Data_Hora;Maquinas"},
		{"strips envelope", "IMTString(2048): Data_Hora;Maquinas", "Data_Hora;Maquinas"},
		{"strips BOM then envelope", "\xef\xbb\xbfIMTString(17):Data_Hora;Maquinas", "Data_Hora;Maquinas"},
		{"trims surrounding whitespace", "Data_Hora;Maquinas\nrow\n\n", "Data_Hora;Maquinas\nrow"},
		{"envelope only at start", "Data_Hora;IMTString(5):x", "Data_Hora;IMTString(5):x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(CleanPayload([]byte(tt.data))))
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"semicolons win", "a;b;c\n1;2;3", ';'},
		{"commas win", "a,b,c\n1,2,3", ','},
		{"comma is the tiebreak", "ab\ncd", ','},
		{"only the header line counts", "a,b\n1;2;3;4;5", ','},
		{"mixed header", "a;b,c;d\nrow", ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data)))
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"sales by data_hora", salesHeader + "\nrow", FileTypeSales},
		{"sales by maquinas uppercase", "DATA;MAQUINAS\nrow", FileTypeSales},
		{"customers by documento", "Documento;Nome;Saldo_Carteira\nrow", FileTypeCustomers},
		{"customers by saldo_carteira", "doc;saldo_carteira\nrow", FileTypeCustomers},
		{"sales markers beat customer markers", "Data_Hora;Documento\nrow", FileTypeSales},
		{"enveloped sales export", "IMTString(99):" + salesHeader, FileTypeSales},
		{"unknown", "id,amount\n1,2", FileTypeUnknown},
		{"empty", "", FileTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileType([]byte(tt.data)))
		})
	}
}

func TestSalesParser_Parse(t *testing.T) {
	payload := "\xef\xbb\xbfIMTString(2048): " + salesHeader + "\n" +
		"15/01/2025 10:00;17,90;17,90;Pix;Lavanderia Centro;Maria Silva;123.456.789-01;11 98765-4321;Lavadora 01;Não;\n" +
		"15/01/2025 18:00;25,50;25,50;Cartão de Crédito;Lavanderia Centro;;;;Lavadora 02 + Secadora 01;Sim;BEMVINDO10\n"

	rows, err := NewSalesParser().Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.RawSaleRow{
		DateTime:      "15/01/2025 10:00",
		GrossAmount:   "17,90",
		PaidAmount:    "17,90",
		PaymentMethod: "Pix",
		Store:         "Lavanderia Centro",
		CustomerName:  "Maria Silva",
		CustomerDoc:   "123.456.789-01",
		Phone:         "11 98765-4321",
		Machines:      "Lavadora 01",
		UsedCoupon:    "Não",
	}, rows[0])

	assert.Equal(t, "Lavadora 02 + Secadora 01", rows[1].Machines)
	assert.Equal(t, "Sim", rows[1].UsedCoupon)
	assert.Equal(t, "BEMVINDO10", rows[1].CouponCode)
	assert.Empty(t, rows[1].CustomerDoc)
}

func TestSalesParser_CommaDelimited(t *testing.T) {
	payload := "Data_Hora,Valor_Venda,Valor_Pago,Maquinas\n" +
		"15/01/2025 10:00,17.90,17.90,Lavadora 01\n"

	rows, err := NewSalesParser().Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "17.90", rows[0].GrossAmount)
	assert.Equal(t, "Lavadora 01", rows[0].Machines)
}

func TestSalesParser_HeaderNamesAreCaseInsensitive(t *testing.T) {
	payload := "DATA_HORA; VALOR_VENDA ;MAQUINAS\n" +
		"15/01/2025 10:00;17,90;Lavadora 01\n"

	rows, err := NewSalesParser().Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "15/01/2025 10:00", rows[0].DateTime)
	assert.Equal(t, "17,90", rows[0].GrossAmount)
	assert.Empty(t, rows[0].PaymentMethod)
}

func TestSalesParser_ToleratesShortRecords(t *testing.T) {
	payload := salesHeader + "\n15/01/2025 10:00;17,90\n"

	rows, err := NewSalesParser().Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "15/01/2025 10:00", rows[0].DateTime)
	assert.Equal(t, "17,90", rows[0].GrossAmount)
	assert.Empty(t, rows[0].Machines)
}

func TestSalesParser_SkipsUnreadableLines(t *testing.T) {
	payload := salesHeader + "\n" +
		"15/01/2025 10:00;17,90;17,90;Pix;Loja;;;;Lavadora 01;;\n" +
		"15/01/2025 11:00;ab\"cd;17,90;Pix;Loja;;;;Lavadora 01;;\n" +
		"15/01/2025 12:00;25,50;25,50;Pix;Loja;;;;Secadora 01;;\n"

	rows, err := NewSalesParser().Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "15/01/2025 10:00", rows[0].DateTime)
	assert.Equal(t, "15/01/2025 12:00", rows[1].DateTime)
}

func TestSalesParser_HeaderOnly(t *testing.T) {
	rows, err := NewSalesParser().Parse(strings.NewReader(salesHeader + "\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSalesParser_EmptyInput(t *testing.T) {
	_, err := NewSalesParser().Parse(strings.NewReader(""))
	assert.ErrorContains(t, err, "header")
}

func TestCustomerParser_Parse(t *testing.T) {
	payload := "Documento;Nome;Telefone;Email;Data_Cadastro;Saldo_Carteira;Data_Ultima_Compra;Quantidade_Compras;Total_Compras\n" +
		"123.456.789-01;Maria Silva;11 98765-4321;maria@example.com;15/03/2024;25,50;10/01/2025 14:30;12;350,00\n"

	rows, err := NewCustomerParser().Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, models.RawCustomerRow{
		Document:      "123.456.789-01",
		Name:          "Maria Silva",
		Phone:         "11 98765-4321",
		Email:         "maria@example.com",
		RegisteredAt:  "15/03/2024",
		WalletBalance: "25,50",
		LastPurchase:  "10/01/2025 14:30",
		PurchaseCount: "12",
		TotalSpent:    "350,00",
	}, rows[0])
}

func TestCustomerParser_EmptyInput(t *testing.T) {
	_, err := NewCustomerParser().Parse(strings.NewReader(""))
	assert.ErrorContains(t, err, "header")
}
