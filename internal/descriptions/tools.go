package descriptions

import "sort"

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Assembly Tools
	PDFMergeDescription = `Combine several PDF documents into one, keeping the order you give.

**When to use:** Need a single document out of chapters, scans, appendices or a batch of invoices.

**Why it's useful:** Pages are copied with their own resources, so fonts and images of every source survive. If any input cannot be read, nothing is written.

**Examples:**
• Assemble a report: "Merge cover.pdf, body.pdf and appendix.pdf into report.pdf"
• Bundle invoices: "Merge all invoices from March into one file for the accountant"

**Common workflows:**
1. Find files with pdf_search_directory → Check each with pdf_validate_file → pdf_merge
2. pdf_split_ranges to cut chapters → reorder → pdf_merge to reassemble

**Best practices:** At least two files are required. Use output_name to choose the merged file name.`

	PDFSplitDescription = `Write selected pages of a PDF as separate single-page documents.

**When to use:** Need individual pages, e.g. one page per signed form or a few pages to send on.

**Why it's useful:** Three selection modes cover the common cases: every page, a range expression such as "1-3, 8, 10-" or an explicit list of page numbers.

**Examples:**
• Burst a scan: "Split scans.pdf into one file per page"
• Pull out pages: "Extract pages 2 and 5 of contract.pdf"
• Keep a range: "Split pages 1-3 and 8 of report.pdf"

**Common workflows:**
1. pdf_document_info to see the page count → pdf_split with mode=range
2. pdf_scan_sensitive to find affected pages → pdf_split with mode=extract

**Best practices:** Page numbers are 1-based. Pages beyond the end of the document are ignored; a selection with no valid page fails.`

	PDFSplitRangesDescription = `Cut a PDF into one document per contiguous page range.

**When to use:** Need chapters or sections as separate files rather than single pages.

**Why it's useful:** Each range becomes one multi-page file named after the source and the range, e.g. book_pages_1-12.pdf.

**Examples:**
• Chapters: "Split book.pdf into 1-12, 13-40 and 41-88"
• Halves: "Split minutes.pdf into 1-5 and 6-10"

**Common workflows:**
1. pdf_document_info → decide ranges → pdf_split_ranges
2. pdf_split_ranges → pdf_compress each part before sharing

**Best practices:** Inverted or out-of-bounds ranges are skipped; if none remain the split fails.`

	PDFCompressDescription = `Shrink a PDF by rewriting it with compressed object streams and optionally strip its metadata.

**When to use:** A file is too large to mail or upload, or its document properties must not leave the organization.

**Why it's useful:** Reports original size, new size and the percentage saved. With remove_metadata the title, author, subject, keywords, creator and producer are blanked and XMP metadata is dropped.

**Examples:**
• Mail attachment: "Compress brochure.pdf before sending"
• Clean properties: "Compress contract.pdf and remove its metadata"

**Common workflows:**
1. pdf_redact → pdf_compress with remove_metadata before sharing externally
2. pdf_merge → pdf_compress

**Best practices:** Password-protected documents are rejected. Already optimized files may not get smaller.`

	// Sensitive Data Tools
	PDFScanSensitiveDescription = `Find sensitive data in a PDF without changing it: card numbers, national ids, phone numbers, e-mail addresses and custom keywords.

**When to use:** Before redacting, to preview what would be covered, or to audit a document.

**Why it's useful:** Every match comes with its page, kind, masked value and bounding box, so the result can be reviewed before anything is drawn.

**Examples:**
• Audit: "Scan statement.pdf for card numbers"
• Keywords: "Find every mention of 'Project Falcon' in minutes.pdf"

**Common workflows:**
1. pdf_scan_sensitive → review → pdf_redact with the same patterns and keywords
2. pdf_scan_batch over a folder → pdf_scan_sensitive on the files with matches

**Best practices:** Without patterns and keywords every built-in pattern is used. Values are masked in the output unless reveal is set. Set require_luhn to only accept card numbers with a valid checksum.`

	PDFScanBatchDescription = `Scan several PDFs for sensitive data concurrently.

**When to use:** Auditing a folder or a list of documents at once.

**Why it's useful:** Files are scanned in parallel; files that cannot be read are listed as failures next to the results instead of failing the whole batch.

**Examples:**
• Folder audit: "Scan every PDF in exports/ for e-mail addresses"

**Common workflows:**
1. pdf_search_directory → pdf_scan_batch with the found paths → pdf_redact the files with matches

**Best practices:** Accepts the same patterns, keywords and require_luhn options as pdf_scan_sensitive.`

	PDFRedactDescription = `Cover sensitive data in a PDF with opaque boxes and save the result as a new file.

**When to use:** Sharing a document that contains card numbers, personal ids, phone numbers, e-mail addresses or confidential terms.

**Why it's useful:** Uses the same detection as pdf_scan_sensitive and draws a black, white or gray box over every match. The original file is never modified.

**Examples:**
• Card numbers: "Redact credit card numbers in statement.pdf"
• Keywords: "Redact 'Project Falcon' and 'ACME' in minutes.pdf with white boxes"

**Common workflows:**
1. pdf_scan_sensitive → pdf_redact → pdf_compress with remove_metadata

**Best practices:** Redaction is visual: the boxes hide the text on screen and in print, but the text remains in the file and can still be extracted or searched. Do not rely on it where the text must be removed.`

	// Inspection Tools
	PDFDocumentInfoDescription = `Get page count, page sizes, encryption state and document properties of a PDF.

**When to use:** Before splitting or merging, or to check the metadata that pdf_compress would remove.

**Why it's useful:** Cheap to run and answers the questions needed to plan the other operations.

**Examples:**
• Planning: "How many pages does manual.pdf have?"
• Properties: "Who is the author of contract.pdf?"

**Best practices:** Page numbers in the result are 1-based.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before attempting to process any PDF file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Prevents processing errors and identifies corrupted files early.

**Examples:**
• Batch processing safety: "Validate all PDFs in invoices/ before merging"
• Upload verification: "Check user-uploaded contract.pdf is valid before redacting"

**Common workflows:**
1. Automated Processing: Validate → Process if valid → Handle errors gracefully

**Best practices:** Always run this first in automated workflows handling unknown PDFs.`

	// Search and Discovery Tools
	PDFSearchDirectoryDescription = `Discover and filter PDF files in the input directory with fuzzy name search.

**When to use:** Need to find specific PDFs by name patterns or build the list of paths for pdf_merge or pdf_scan_batch.

**Why it's useful:** Quickly locates relevant documents without manual browsing, supports fuzzy matching for partial names.

**Examples:**
• Find invoices: "Search for files containing 'invoice' or '2024'"
• Inventory: "List all PDFs in archive/"

**Best practices:** Directories are resolved against the input directory; hidden directories are skipped.`

	PDFServerInfoDescription = `Get server configuration, available tools and the input directory contents.

**When to use:** At the start of a session, to learn the input and output directories, limits and supported patterns and colors.

**Why it's useful:** One call answers where files are read from, where results are written and what each tool expects.

**Best practices:** The directory listing is cached for a few minutes; use pdf_search_directory for a fresh listing.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"pdf_merge":            PDFMergeDescription,
	"pdf_split":            PDFSplitDescription,
	"pdf_split_ranges":     PDFSplitRangesDescription,
	"pdf_compress":         PDFCompressDescription,
	"pdf_scan_sensitive":   PDFScanSensitiveDescription,
	"pdf_scan_batch":       PDFScanBatchDescription,
	"pdf_redact":           PDFRedactDescription,
	"pdf_document_info":    PDFDocumentInfoDescription,
	"pdf_validate_file":    PDFValidateFileDescription,
	"pdf_search_directory": PDFSearchDirectoryDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a sorted list of all available tool names
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
