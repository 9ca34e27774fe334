package mysql

const createReviewsSQL = `
CREATE TABLE IF NOT EXISTS reviews (
  id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  formatted_address TEXT            NOT NULL,
  review_text       TEXT            NOT NULL,
  floor             DOUBLE          NOT NULL,
  unit_number       VARCHAR(255)    NOT NULL,
  lat               DOUBLE          NOT NULL,
  lng               DOUBLE          NOT NULL,
  created_at        DATETIME(3)     NOT NULL,
  PRIMARY KEY (id),
  KEY idx_reviews_lat_lng (lat, lng)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const insertReviewSQL = `
INSERT INTO reviews
  (formatted_address, review_text, floor, unit_number, lat, lng, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Both ranges are inclusive; the (lat, lng) index narrows on lat first.
const findNearSQL = `
SELECT
  id,
  formatted_address,
  review_text,
  floor,
  unit_number,
  lat,
  lng,
  created_at
FROM reviews
WHERE lat BETWEEN ? AND ?
  AND lng BETWEEN ? AND ?
`
