package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectNames(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.Equal(t, "templates/t-1/1700000000_modelo_venda.docx",
		TemplateSourceObjectName("t-1", "modelo venda.docx", now))
	assert.Equal(t, "templates/t-1/1700000000_passwd",
		TemplateSourceObjectName("t-1", "../../etc/passwd", now))
	assert.Equal(t, "contracts/c-9/exports/Contrato_1.pdf",
		ContractExportObjectName("c-9", "Contrato_1.pdf"))
	assert.Equal(t, "contracts/c-9/exports/file",
		ContractExportObjectName("c-9", ""))
}
