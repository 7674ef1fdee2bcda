package categorize

import (
	"testing"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		desc string
		want models.Category
	}{
		{"ENVIO PIX", models.CategoryTransfers},
		{"Transferência recebida", models.CategoryTransfers},
		{"TED DEPOSITO IDENTIFICADO", models.CategoryTransfers},
		{"SAQUE LOT", models.CategoryWithdrawals},
		{"Depósito em dinheiro", models.CategoryDeposits},
		{"PAG BOLETO", models.CategoryPurchases},
		{"COMPRA CARTAO MERCADO", models.CategoryPurchases},
		{"TARIFA PACOTE SERVICOS", models.CategoryFees},
		{"RENDIMENTO POUPANCA", models.CategoryYield},
		{"DOCERIA DA ANA", models.CategoryOther},
		{"", models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := Categorize(tt.desc); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  ENVIO   PIX  ", "Envio Pix"},
		{"PAG*BOLETO/CEMIG", "Pag Boleto Cemig"},
		{"compra - loja 12.3", "Compra - Loja 12.3"},
		{"transferência  enviada", "Transferência Enviada"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsGambling(t *testing.T) {
	tests := []struct {
		desc string
		want bool
	}{
		{"Pix Enviado Betano", true},
		{"COMPRA BET365 LTD", true},
		{"Cassino online", true},
		{"Mercado Central", false},
		{"PIX ENVIADO BET NACIONAL", true},
		{"Jogo do Bicho", true},
		{"Raspadinha Loteria", true},
		{"Betty Confeitaria", false},
		{"Casa do Pao", false},
	}

	for _, tt := range tests {
		if got := IsGambling(tt.desc); got != tt.want {
			t.Errorf("IsGambling(%q) = %v, want %v", tt.desc, got, tt.want)
		}
	}
}
