package domain

// KeyPrefix namespaces every key the service writes to the database.
const KeyPrefix = "ilp:"

// EmbeddingDimensions is the vector size the embedding provider must return.
const EmbeddingDimensions = 1536
