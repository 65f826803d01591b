package mysql

// Multi-row upsert: prefix + "(?,...),(?,...)" + suffix.
const upsertRatesPrefix = "INSERT INTO hotel_rates\n  (property_id, destination, name, currency, nightly_rate, max_occupancy, rating, review_count, url, raw, fetched_at)\nVALUES "

// COALESCE keeps the old optional value if the new payload omitted it.
const upsertRatesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  name          = VALUES(name),\n" +
	"  currency      = VALUES(currency),\n" +
	"  nightly_rate  = VALUES(nightly_rate),\n" +
	"  max_occupancy = VALUES(max_occupancy),\n" +
	"  rating        = COALESCE(VALUES(rating), hotel_rates.rating),\n" +
	"  review_count  = COALESCE(VALUES(review_count), hotel_rates.review_count),\n" +
	"  url           = COALESCE(VALUES(url), hotel_rates.url),\n" +
	"  raw           = VALUES(raw),\n" +
	"  fetched_at    = VALUES(fetched_at)\n"

const insertMissSQL = `
INSERT INTO ingest_misses (destination, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE http_status = VALUES(http_status), seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Every listing that fits the party, was refreshed after the cutoff and is
// quoted in the given currency ('' matches all), freshest first.
const searchRatesSQL = `
SELECT
  property_id,
  name,
  currency,
  nightly_rate,
  rating,
  review_count,
  url
FROM hotel_rates
WHERE destination = ?
  AND max_occupancy >= ?
  AND fetched_at >= ?
  AND (? = '' OR currency = ?)
ORDER BY fetched_at DESC, property_id
`
