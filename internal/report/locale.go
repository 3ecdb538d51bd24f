package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Almahr1/seoaudit/internal/issue"
	"golang.org/x/text/language"
)

// ErrUnknownLocale is returned for a locale no catalog matches
var ErrUnknownLocale = errors.New("unknown locale")

// DefaultLocale is used when no locale is configured
const DefaultLocale = "en"

// Message is the human text for one issue kind. Fields may hold {0}-style placeholders.
type Message struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// LocaleCatalog maps issue kinds to messages in one language
type LocaleCatalog struct {
	Locale   string
	messages map[issue.Kind]Message
}

// NewLocaleCatalog wraps a message table
func NewLocaleCatalog(locale string, messages map[issue.Kind]Message) *LocaleCatalog {
	return &LocaleCatalog{Locale: locale, messages: messages}
}

var builtin = map[string]*LocaleCatalog{
	"en": NewLocaleCatalog("en", englishMessages),
	"zh": NewLocaleCatalog("zh", chineseMessages),
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

// Catalog returns the built-in catalog for a BCP 47 locale such as "en", "en-GB" or "zh-CN"
func Catalog(locale string) (*LocaleCatalog, error) {
	if strings.TrimSpace(locale) == "" {
		return builtin[DefaultLocale], nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownLocale, locale, err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return nil, fmt.Errorf("%w %q", ErrUnknownLocale, locale)
	}
	if idx == 1 {
		return builtin["zh"], nil
	}
	return builtin["en"], nil
}

// Locales lists the built-in catalog names
func Locales() []string {
	return []string{"en", "zh"}
}

// Has reports whether the catalog carries text for k
func (c *LocaleCatalog) Has(k issue.Kind) bool {
	_, ok := c.messages[k]
	return ok
}

// Message returns the interpolated text for k. Unknown kinds fall back to the kind name.
func (c *LocaleCatalog) Message(k issue.Kind, args []string) Message {
	m, ok := c.messages[k]
	if !ok {
		return Message{Title: string(k)}
	}
	return Message{
		Title:       Interpolate(m.Title, args),
		Description: Interpolate(m.Description, args),
		Suggestion:  Interpolate(m.Suggestion, args),
	}
}

// Interpolate replaces {0}, {1}, ... with args. Placeholders without an argument are left as they are.
func Interpolate(tmpl string, args []string) string {
	if len(args) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(args))
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", a)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var englishMessages = map[issue.Kind]Message{
	issue.NoRobots: {
		Title:       "robots.txt not reachable",
		Description: "The site does not serve a robots.txt file with status 200.",
		Suggestion:  "Publish a robots.txt at the site root, even if it allows everything.",
	},
	issue.RobotsEmpty: {
		Title:       "robots.txt is empty",
		Description: "The robots.txt file has almost no content.",
		Suggestion:  "Add at least a User-agent group and a Sitemap line.",
	},
	issue.RobotsNoUserAgent: {
		Title:       "robots.txt has no User-agent",
		Description: "Without a User-agent line, crawlers ignore every rule in the file.",
		Suggestion:  "Start each rule group with a User-agent directive, for example \"User-agent: *\".",
	},
	issue.RobotsBlocksAll: {
		Title:       "robots.txt blocks the whole site",
		Description: "A bare \"Disallow: /\" stops search engines from crawling any page.",
		Suggestion:  "Remove the rule or scope it to the paths that must stay private.",
	},
	issue.RobotsBlocksResources: {
		Title:       "robots.txt blocks CSS or JavaScript",
		Description: "Blocked resources prevent search engines from rendering pages: {0}.",
		Suggestion:  "Allow crawling of stylesheets and scripts needed to render content.",
	},
	issue.RobotsNoSitemap: {
		Title:       "robots.txt does not list a sitemap",
		Description: "Crawlers discover sitemaps faster when robots.txt declares them.",
		Suggestion:  "Add a \"Sitemap: https://example.com/sitemap.xml\" line.",
	},
	issue.NoSitemap: {
		Title:       "Sitemap not reachable",
		Description: "The sitemap could not be fetched with status 200.",
		Suggestion:  "Publish an XML sitemap and submit it in search console.",
	},
	issue.InvalidSitemap: {
		Title:       "Sitemap is not valid XML",
		Description: "Search engines cannot read a sitemap that fails to parse.",
		Suggestion:  "Validate the sitemap against the sitemaps.org schema.",
	},
	issue.EmptySitemap: {
		Title:       "Sitemap lists no URLs",
		Description: "The sitemap contains no <loc> entries.",
		Suggestion:  "Include every canonical, indexable page in the sitemap.",
	},
	issue.HTTP5xx: {
		Title:       "Server error (HTTP {0})",
		Description: "The server failed to answer the request.",
		Suggestion:  "Check server logs and fix the failing handler.",
	},
	issue.HTTP4xx: {
		Title:       "Broken link (HTTP {0})",
		Description: "An internal link points to a page that does not exist.",
		Suggestion:  "Update or remove the link, or redirect the old URL.",
	},
	issue.HTTP3xx: {
		Title:       "Internal redirect",
		Description: "An internal link passes through {0} redirect(s) before reaching content.",
		Suggestion:  "Link directly to the final URL.",
	},
	issue.FetchFailed: {
		Title:       "Page could not be fetched",
		Description: "The request failed before a response was received.",
		Suggestion:  "Check DNS, TLS and server availability for this URL.",
	},
	issue.ServerLocation: {
		Title:       "Server located in {0}",
		Description: "The server is hosted in {0} while the target market is {1}.",
		Suggestion:  "Consider hosting or a CDN edge closer to the target audience.",
	},
	issue.Soft404: {
		Title:       "Possible soft 404",
		Description: "The page returns status 200 but its content says it was not found.",
		Suggestion:  "Return a real 404 status for missing pages.",
	},
	issue.Noindex: {
		Title:       "Page is set to noindex",
		Description: "The robots meta tag keeps this page out of search results.",
		Suggestion:  "Remove noindex if the page should rank.",
	},
	issue.Duplicate: {
		Title:       "Duplicate content",
		Description: "This page has the same content as {0}.",
		Suggestion:  "Add a canonical link to the preferred URL or make the content unique.",
	},
	issue.MissingCanonical: {
		Title:       "Missing canonical link",
		Description: "The page does not declare its preferred URL.",
		Suggestion:  "Add <link rel=\"canonical\"> pointing to the page itself.",
	},
	issue.InvalidHreflang: {
		Title:       "Invalid hreflang values",
		Description: "These hreflang codes are not valid language tags: {0}.",
		Suggestion:  "Use ISO 639-1 language codes with optional ISO 3166-1 regions.",
	},
	issue.MissingXDefault: {
		Title:       "hreflang without x-default",
		Description: "Alternate languages are declared but no x-default fallback is.",
		Suggestion:  "Add an hreflang=\"x-default\" alternate.",
	},
	issue.MissingHreflang: {
		Title:       "No hreflang annotations",
		Description: "Neither the page nor the sitemap declares language alternates.",
		Suggestion:  "Declare hreflang alternates if the site targets several languages.",
	},
	issue.MissingViewport: {
		Title:       "Missing viewport meta tag",
		Description: "Without a viewport the page is not mobile friendly.",
		Suggestion:  "Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">.",
	},
	issue.NoHTTPS: {
		Title:       "Site is not served over HTTPS",
		Description: "Browsers mark plain HTTP sites as not secure.",
		Suggestion:  "Install a TLS certificate and redirect HTTP to HTTPS.",
	},
	issue.JavascriptLinks: {
		Title:       "javascript: links",
		Description: "{0} links use javascript: URLs that crawlers cannot follow.",
		Suggestion:  "Use real href targets for navigation.",
	},
	issue.MissingSchema: {
		Title:       "No structured data",
		Description: "The page has no JSON-LD structured data.",
		Suggestion:  "Add {0} markup with schema.org JSON-LD.",
	},
	issue.InvalidSchema: {
		Title:       "Invalid structured data",
		Description: "{0} JSON-LD block(s) are not valid JSON.",
		Suggestion:  "Fix the syntax and check the markup with a rich results validator.",
	},
	issue.URLUppercase: {
		Title:       "Uppercase characters in URL",
		Description: "Mixed-case URLs are easy to duplicate by accident.",
		Suggestion:  "Use lowercase paths and redirect the uppercase variants.",
	},
	issue.URLUnderscore: {
		Title:       "Underscores in URL",
		Description: "Search engines treat hyphens, not underscores, as word separators.",
		Suggestion:  "Use hyphens to separate words in paths.",
	},
	issue.MissingHTMLLang: {
		Title:       "Missing html lang attribute",
		Description: "The document does not declare its language.",
		Suggestion:  "Add a lang attribute to the <html> element.",
	},
	issue.MissingFavicon: {
		Title:       "Favicon missing",
		Description: "No favicon could be fetched for the site.",
		Suggestion:  "Serve /favicon.ico or declare <link rel=\"icon\">.",
	},
	issue.MissingTitle: {
		Title:       "Missing page title",
		Description: "The page has no <title>, so search engines cannot tell what it is about.",
		Suggestion:  "Add a descriptive title inside <head>.",
	},
	issue.ShortTitle: {
		Title:       "Title too short",
		Description: "The title is only about {0}px wide and covers few keywords.",
		Suggestion:  "Extend the title to roughly 30 to 60 characters.",
	},
	issue.LongTitle: {
		Title:       "Title too long",
		Description: "The title is about {0}px wide and will be truncated in results.",
		Suggestion:  "Keep titles under roughly 600px, about 60 characters.",
	},
	issue.MissingDescription: {
		Title:       "Missing meta description",
		Description: "Search engines will pick a snippet from page text instead.",
		Suggestion:  "Write a unique meta description for the page.",
	},
	issue.ShortDescription: {
		Title:       "Meta description too short",
		Description: "The description is only about {0}px wide.",
		Suggestion:  "Aim for roughly 120 to 160 characters.",
	},
	issue.MissingH1: {
		Title:       "Missing H1 heading",
		Description: "The page has no main heading.",
		Suggestion:  "Add exactly one H1 containing the main keyword.",
	},
	issue.MultipleH1: {
		Title:       "Multiple H1 headings",
		Description: "The page has {0} H1 headings.",
		Suggestion:  "Keep one H1 and demote the others to H2.",
	},
	issue.GenericAnchor: {
		Title:       "Generic anchor text",
		Description: "{0} links use generic text such as \"click here\".",
		Suggestion:  "Describe the target page in the link text.",
	},
	issue.MissingAlt: {
		Title:       "Images missing alt text",
		Description: "{0} image(s) have no alt attribute, hurting image search and accessibility.",
		Suggestion:  "Add descriptive alt text to every img element.",
	},
	issue.PoorAlt: {
		Title:       "Poor image alt text",
		Description: "{0} image(s) have alt text that is too short or generic.",
		Suggestion:  "Describe what the image shows.",
	},
	issue.MissingImageDimensions: {
		Title:       "Images without dimensions",
		Description: "{0} image(s) lack width and height, causing layout shift.",
		Suggestion:  "Set width and height attributes on images.",
	},
	issue.SlowLCP: {
		Title:       "Slow Largest Contentful Paint",
		Description: "LCP is {0}ms, above the 2500ms threshold.",
		Suggestion:  "Optimize the hero image, server response time and render-blocking resources.",
	},
	issue.HighCLS: {
		Title:       "High Cumulative Layout Shift",
		Description: "CLS is {0}, above the 0.1 threshold.",
		Suggestion:  "Reserve space for images, ads and embeds.",
	},
	issue.SlowINP: {
		Title:       "Slow Interaction to Next Paint",
		Description: "INP is {0}ms, above the 200ms threshold.",
		Suggestion:  "Break up long tasks and reduce main-thread JavaScript.",
	},
	issue.SlowFCP: {
		Title:       "Slow First Contentful Paint",
		Description: "FCP is {0}ms, above the 1800ms threshold.",
		Suggestion:  "Inline critical CSS and defer non-critical scripts.",
	},
	issue.PerfUnavailable: {
		Title:       "Performance data unavailable",
		Description: "Field performance metrics could not be retrieved for this page.",
		Suggestion:  "Check the provider configuration or try again later.",
	},
}

var chineseMessages = map[issue.Kind]Message{
	issue.NoRobots: {
		Title:       "无法访问 robots.txt",
		Description: "站点根目录没有返回状态码 200 的 robots.txt 文件。",
		Suggestion:  "在站点根目录发布 robots.txt，即使它允许抓取全部内容。",
	},
	issue.RobotsEmpty: {
		Title:       "robots.txt 内容为空",
		Description: "robots.txt 文件几乎没有内容。",
		Suggestion:  "至少添加一个 User-agent 分组和 Sitemap 声明。",
	},
	issue.RobotsNoUserAgent: {
		Title:       "robots.txt 缺少 User-agent",
		Description: "没有 User-agent 行时，爬虫会忽略文件中的所有规则。",
		Suggestion:  "每个规则组以 User-agent 指令开头，例如 \"User-agent: *\"。",
	},
	issue.RobotsBlocksAll: {
		Title:       "robots.txt 屏蔽了整个站点",
		Description: "单独的 \"Disallow: /\" 会阻止搜索引擎抓取任何页面。",
		Suggestion:  "删除该规则，或仅对需要保密的路径生效。",
	},
	issue.RobotsBlocksResources: {
		Title:       "robots.txt 屏蔽了 CSS 或 JavaScript",
		Description: "被屏蔽的资源会妨碍搜索引擎渲染页面：{0}。",
		Suggestion:  "允许抓取渲染内容所需的样式表和脚本。",
	},
	issue.RobotsNoSitemap: {
		Title:       "robots.txt 未声明站点地图",
		Description: "在 robots.txt 中声明站点地图可以让爬虫更快发现它。",
		Suggestion:  "添加 \"Sitemap: https://example.com/sitemap.xml\" 一行。",
	},
	issue.NoSitemap: {
		Title:       "无法访问站点地图",
		Description: "站点地图没有以状态码 200 返回。",
		Suggestion:  "发布 XML 站点地图并在搜索控制台提交。",
	},
	issue.InvalidSitemap: {
		Title:       "站点地图不是有效的 XML",
		Description: "搜索引擎无法读取解析失败的站点地图。",
		Suggestion:  "按照 sitemaps.org 规范校验站点地图。",
	},
	issue.EmptySitemap: {
		Title:       "站点地图没有任何 URL",
		Description: "站点地图中不包含 <loc> 条目。",
		Suggestion:  "将所有规范且可索引的页面加入站点地图。",
	},
	issue.HTTP5xx: {
		Title:       "服务器错误 (HTTP {0})",
		Description: "服务器未能正常响应请求。",
		Suggestion:  "检查服务器日志并修复出错的处理程序。",
	},
	issue.HTTP4xx: {
		Title:       "死链 (HTTP {0})",
		Description: "内部链接指向了不存在的页面。",
		Suggestion:  "更新或删除该链接，或将旧 URL 重定向。",
	},
	issue.HTTP3xx: {
		Title:       "内部重定向",
		Description: "内部链接经过 {0} 次重定向才到达内容。",
		Suggestion:  "直接链接到最终 URL。",
	},
	issue.FetchFailed: {
		Title:       "页面抓取失败",
		Description: "在收到响应之前请求就已失败。",
		Suggestion:  "检查该 URL 的 DNS、TLS 证书与服务器可用性。",
	},
	issue.ServerLocation: {
		Title:       "服务器位于 {0}",
		Description: "服务器托管在 {0}，而目标市场是 {1}。",
		Suggestion:  "考虑使用更靠近目标用户的主机或 CDN 节点。",
	},
	issue.Soft404: {
		Title:       "疑似软 404 (Soft 404)",
		Description: "页面返回 200 状态码，但内容显示“未找到”。",
		Suggestion:  "配置服务器，对不存在的页面返回真正的 404 状态码。",
	},
	issue.Noindex: {
		Title:       "页面被设置为 noindex",
		Description: "robots meta 标签使该页面无法出现在搜索结果中。",
		Suggestion:  "如果页面需要获得排名，请移除 noindex。",
	},
	issue.Duplicate: {
		Title:       "重复内容",
		Description: "该页面与 {0} 的内容相同。",
		Suggestion:  "添加指向首选 URL 的 canonical 链接，或让内容保持唯一。",
	},
	issue.MissingCanonical: {
		Title:       "缺失 canonical 标签",
		Description: "页面没有声明其首选 URL。",
		Suggestion:  "添加指向页面自身的 <link rel=\"canonical\">。",
	},
	issue.InvalidHreflang: {
		Title:       "hreflang 取值无效",
		Description: "以下 hreflang 代码不是有效的语言标签：{0}。",
		Suggestion:  "使用 ISO 639-1 语言代码，可附加 ISO 3166-1 地区代码。",
	},
	issue.MissingXDefault: {
		Title:       "hreflang 缺少 x-default",
		Description: "声明了多语言版本，但没有 x-default 回退版本。",
		Suggestion:  "添加 hreflang=\"x-default\" 的备用链接。",
	},
	issue.MissingHreflang: {
		Title:       "没有 hreflang 标注",
		Description: "页面和站点地图都没有声明语言版本。",
		Suggestion:  "如果站点面向多种语言，请声明 hreflang 备用链接。",
	},
	issue.MissingViewport: {
		Title:       "缺失 viewport 标签",
		Description: "没有 viewport 的页面对移动设备不友好。",
		Suggestion:  "添加 <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">。",
	},
	issue.NoHTTPS: {
		Title:       "站点未使用 HTTPS",
		Description: "浏览器会将纯 HTTP 站点标记为不安全。",
		Suggestion:  "安装 TLS 证书并将 HTTP 重定向到 HTTPS。",
	},
	issue.JavascriptLinks: {
		Title:       "javascript: 链接",
		Description: "{0} 个链接使用了爬虫无法跟踪的 javascript: 地址。",
		Suggestion:  "导航链接请使用真实的 href 目标。",
	},
	issue.MissingSchema: {
		Title:       "缺少结构化数据",
		Description: "页面没有 JSON-LD 结构化数据。",
		Suggestion:  "使用 schema.org JSON-LD 添加 {0} 标记。",
	},
	issue.InvalidSchema: {
		Title:       "结构化数据无效",
		Description: "{0} 个 JSON-LD 块不是有效的 JSON。",
		Suggestion:  "修正语法，并使用富媒体搜索结果测试工具检查。",
	},
	issue.URLUppercase: {
		Title:       "URL 含有大写字母",
		Description: "大小写混合的 URL 容易产生重复页面。",
		Suggestion:  "使用小写路径，并将大写版本重定向。",
	},
	issue.URLUnderscore: {
		Title:       "URL 含有下划线",
		Description: "搜索引擎把连字符而不是下划线视为单词分隔符。",
		Suggestion:  "路径中使用连字符分隔单词。",
	},
	issue.MissingHTMLLang: {
		Title:       "缺失 html lang 属性",
		Description: "文档没有声明其语言。",
		Suggestion:  "为 <html> 元素添加 lang 属性。",
	},
	issue.MissingFavicon: {
		Title:       "缺失网站图标",
		Description: "无法获取站点的 favicon。",
		Suggestion:  "提供 /favicon.ico 或声明 <link rel=\"icon\">。",
	},
	issue.MissingTitle: {
		Title:       "缺失页面标题 (Title Tag)",
		Description: "页面没有 <title> 标签，搜索引擎无法理解页面主题。",
		Suggestion:  "在 <head> 中添加描述性的标题。",
	},
	issue.ShortTitle: {
		Title:       "标题过短",
		Description: "标题宽度仅约 {0}px，难以覆盖核心关键词。",
		Suggestion:  "建议将标题扩充至 30-60 个字符。",
	},
	issue.LongTitle: {
		Title:       "标题过长",
		Description: "标题宽度约 {0}px，会在搜索结果中被截断。",
		Suggestion:  "标题宽度控制在约 600px 以内。",
	},
	issue.MissingDescription: {
		Title:       "缺失 meta description",
		Description: "搜索引擎将改为从页面正文中截取摘要。",
		Suggestion:  "为页面撰写独特的描述。",
	},
	issue.ShortDescription: {
		Title:       "meta description 过短",
		Description: "描述宽度仅约 {0}px。",
		Suggestion:  "建议长度约为 120-160 个字符。",
	},
	issue.MissingH1: {
		Title:       "缺失 H1 标签",
		Description: "页面缺乏主标题 (H1)，影响页面层级结构。",
		Suggestion:  "添加且仅添加一个包含核心关键词的 H1 标签。",
	},
	issue.MultipleH1: {
		Title:       "存在多个 H1 标签",
		Description: "页面包含 {0} 个 H1 标题。",
		Suggestion:  "保留一个 H1，其余改为 H2。",
	},
	issue.GenericAnchor: {
		Title:       "锚文本过于笼统",
		Description: "{0} 个链接使用了“点击这里”之类的笼统文字。",
		Suggestion:  "在链接文字中描述目标页面。",
	},
	issue.MissingAlt: {
		Title:       "图片缺失 Alt 属性",
		Description: "{0} 张图片缺少替代文本，影响图片搜索排名和无障碍访问。",
		Suggestion:  "为所有 img 标签添加描述性的 alt 属性。",
	},
	issue.PoorAlt: {
		Title:       "图片 Alt 文本质量差",
		Description: "{0} 张图片的 alt 文本过短或过于笼统。",
		Suggestion:  "描述图片所展示的内容。",
	},
	issue.MissingImageDimensions: {
		Title:       "图片未设置尺寸",
		Description: "{0} 张图片缺少 width 和 height，会导致布局偏移。",
		Suggestion:  "为图片设置 width 和 height 属性。",
	},
	issue.SlowLCP: {
		Title:       "最大内容绘制 (LCP) 过慢",
		Description: "LCP 为 {0}ms，超过 2500ms 阈值。",
		Suggestion:  "优化首屏图片、服务器响应时间和阻塞渲染的资源。",
	},
	issue.HighCLS: {
		Title:       "累积布局偏移 (CLS) 过高",
		Description: "CLS 为 {0}，超过 0.1 阈值。",
		Suggestion:  "为图片、广告和嵌入内容预留空间。",
	},
	issue.SlowINP: {
		Title:       "交互到下一次绘制 (INP) 过慢",
		Description: "INP 为 {0}ms，超过 200ms 阈值。",
		Suggestion:  "拆分长任务，减少主线程上的 JavaScript。",
	},
	issue.SlowFCP: {
		Title:       "首次内容绘制 (FCP) 过慢",
		Description: "FCP 为 {0}ms，超过 1800ms 阈值。",
		Suggestion:  "内联关键 CSS，延迟加载非关键脚本。",
	},
	issue.PerfUnavailable: {
		Title:       "无法获取性能数据",
		Description: "无法获取该页面的真实用户性能指标。",
		Suggestion:  "检查数据源配置，或稍后重试。",
	},
}
