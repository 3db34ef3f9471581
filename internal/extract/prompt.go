package extract

// InvoicePrompt is the fixed instruction sent with every invoice image. The
// field keys are the contract the normalizer parses against; changing them is
// a breaking change for stored raw payloads.
const InvoicePrompt = `Analyze this invoice and extract the following data as valid JSON.
If a field is not present, use "Not found" as its value.

Required format:
{
    "empresa": "full name of the issuing company",
    "fecha": "issue date (YYYY-MM-DD if possible)",
    "numero_factura": "invoice number or code",
    "precio_total": "total amount (numbers only, no currency symbols)",
    "moneda": "currency code (USD, EUR, ARS, etc.)",
    "cantidad_items": "total number of items/products",
    "descripcion_principal": "description of the main product/service",
    "cuit_ruc": "CUIT, RUC or tax identification",
    "direccion": "company address",
    "telefono": "contact phone",
    "email": "e-mail address if available"
}

IMPORTANT: Respond ONLY with the valid JSON, no text before or after.`
