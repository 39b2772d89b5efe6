package postgres

// SQL queries for the company store.

const (
	queryCreateCompany = `
		INSERT INTO companies (name, stage)
		VALUES ($1, $2)
		RETURNING id
	`

	queryGetCompany = `
		SELECT id, name, stage, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	queryListCompanies = `
		SELECT id, name, stage, created_at, updated_at
		FROM companies
		ORDER BY updated_at DESC, id ASC
	`

	queryListCompaniesByStage = `
		SELECT id, name, stage, created_at, updated_at
		FROM companies
		WHERE stage = $1
		ORDER BY updated_at DESC, id ASC
	`

	// queryListEvents orders by (created_at, id): id is the BIGSERIAL
	// tie-breaker for events sharing a timestamp.
	queryListEvents = `
		SELECT id, company_id, event_type, event_data, created_at
		FROM company_events
		WHERE company_id = $1
		ORDER BY created_at ASC, id ASC
	`

	queryAppendEvent = `
		INSERT INTO company_events (company_id, event_type, event_data)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	// queryLockStage serializes per-company advances: the row lock holds until
	// the transaction commits, so concurrent advances observe each other.
	queryLockStage = `
		SELECT stage
		FROM companies
		WHERE id = $1
		FOR UPDATE
	`

	queryAppendTransition = `
		INSERT INTO stage_transitions (company_id, from_stage, to_stage)
		VALUES ($1, $2, $3)
	`

	queryUpdateStage = `
		UPDATE companies
		SET stage = $1, updated_at = now()
		WHERE id = $2
	`
)
