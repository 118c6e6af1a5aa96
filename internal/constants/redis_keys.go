package constants

// Redis Key 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有 Redis Key 的应用前缀
	AppPrefix = "app"

	// JobModulePrefix 岗位描述模块
	JobModulePrefix = "job"
	// EmbeddingModulePrefix 向量化模块
	EmbeddingModulePrefix = "embedding"

	EntityText   = "text"
	EntityVector = "vector"

	// KeyJobDescriptionText 按 URL 缓存抓取到的 JD 文本 (STRING)
	// 格式: app:job:text:{sha256(url|max_chars|strip_html)}
	KeyJobDescriptionText = AppPrefix + ":" + JobModulePrefix + ":" + EntityText + ":%s"

	// KeyEmbeddingVector 文本向量缓存 (HASH: vector 为 JSON 数组, dim 为维度)
	// 格式: app:embedding:vector:{model}:{sha256(text)}
	KeyEmbeddingVector = AppPrefix + ":" + EmbeddingModulePrefix + ":" + EntityVector + ":%s:%s"
)
