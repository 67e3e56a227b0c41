package engine

// DDL for the local tables. Every statement is idempotent so Initialize
// can re-apply the schema over a restored image. The engine has no native
// boolean or date type: booleans are stored as 0/1 integers and dates as
// ISO-8601 text.
const (
	createPatients = `CREATE TABLE IF NOT EXISTS patients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL CHECK (length(first_name) > 0),
		last_name TEXT NOT NULL CHECK (length(last_name) > 0),
		email TEXT,
		phone TEXT,
		birth_date TEXT,
		address TEXT,
		is_smoker INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createAppointments = `CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		practitioner_id INTEGER NOT NULL,
		start_at TEXT NOT NULL,
		duration_min INTEGER NOT NULL DEFAULT 45,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createInvoices = `CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		appointment_id INTEGER,
		number TEXT,
		invoice_date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		paid INTEGER NOT NULL DEFAULT 0,
		paid_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createConsultations = `CREATE TABLE IF NOT EXISTS consultations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		appointment_id INTEGER,
		consult_date TEXT NOT NULL,
		summary TEXT,
		treatment TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createDocuments = `CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		mime_type TEXT,
		path TEXT,
		size INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createQuotes = `CREATE TABLE IF NOT EXISTS quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		number TEXT,
		quote_date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		accepted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createTreatments = `CREATE TABLE IF NOT EXISTS treatments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		consultation_id INTEGER,
		treat_date TEXT NOT NULL,
		technique TEXT,
		region TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`

	createRelationships = `CREATE TABLE IF NOT EXISTS relationships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		related_patient_id INTEGER NOT NULL,
		relation TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	)`
)

// Indexes on foreign keys and common filter columns.
var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_patients_last_name ON patients(last_name)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_email ON patients(email)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_practitioner_start ON appointments(practitioner_id, start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_patient ON invoices(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices(invoice_date)`,
	`CREATE INDEX IF NOT EXISTS idx_consultations_patient ON consultations(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_patient ON documents(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_quotes_patient ON quotes(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_patient ON treatments(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_relationships_patient ON relationships(patient_id)`,
}

// schemaDDL lists all statements in application order.
var schemaDDL = []string{
	createPatients,
	createAppointments,
	createInvoices,
	createConsultations,
	createDocuments,
	createQuotes,
	createTreatments,
	createRelationships,
}
