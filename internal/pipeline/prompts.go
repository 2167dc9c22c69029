package pipeline

import "strings"

const jsonOnlyRules = "Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Do NOT add any explanation before or after the JSON.\n"

// BuildMetadataPrompt asks for the seven account identity fields of a page.
func BuildMetadataPrompt(pageText string) string {
	var b strings.Builder

	b.WriteString("You are extracting account details from one page of a bank statement.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Read the statement text below and return a single JSON object.\n")
	b.WriteString("- The object must have EXACTLY these fields, all strings:\n")
	b.WriteString("  \"bankName\", \"accountHolderName\", \"accountNumber\", \"accountType\",\n")
	b.WriteString("  \"currency\", \"statementStartDate\", \"statementEndDate\".\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Every field defaults to the empty string \"\" when the value is not on the page.\n")
	b.WriteString("- Never guess or fabricate a value. Copy values as they appear in the text.\n")
	b.WriteString("- Account numbers are often labelled \"Account No\", \"Account Number\", \"A/c No\" or\n")
	b.WriteString("  \"Savings A/c\" / \"Current A/c\". A bare run of 10 to 18 digits is usually the account number.\n")
	b.WriteString("- Report the account number digits only, without spaces.\n\n")
	b.WriteString(jsonOnlyRules)
	b.WriteString("\nStatement text:\n")
	b.WriteString(pageText)
	b.WriteString("\n")

	return b.String()
}

// BuildTransactionPrompt asks for the transaction rows present in fragment.
func BuildTransactionPrompt(fragment string) string {
	var b strings.Builder

	b.WriteString("You are extracting the transaction table from one page of a bank statement.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Return a single JSON object with one field, \"transactions\", holding an array.\n")
	b.WriteString("- Each array element is an object with these string fields:\n")
	b.WriteString("  \"date\", \"description\", \"debit\", \"credit\", \"balance\".\n")
	b.WriteString("- Keep the rows in the order they appear in the text.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Only report rows that are present in the text. Never invent rows.\n")
	b.WriteString("- Never invent values. Use the empty string \"\" for a column that is blank.\n")
	b.WriteString("- Never compute or correct balances. Copy amounts exactly as printed.\n")
	b.WriteString("- If the text has no transactions, return {\"transactions\": []}.\n\n")
	b.WriteString(jsonOnlyRules)
	b.WriteString("\nStatement text:\n")
	b.WriteString(fragment)
	b.WriteString("\n")

	return b.String()
}
