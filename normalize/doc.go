// 版权所有 2024 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 normalize 把用户的自由文本改写为解析器能识别的标准短语。

# 解析顺序

 1. 缓存命中（按原始文本精确匹配）直接返回；
 2. 小写后精确命中本地同义词表，直接返回映射值，不写缓存；
 3. 否则请求外部委托（Delegate）"Convert "<raw>" into a standardized command."，
    去除首尾空白后写入缓存并返回；
 4. 委托失败、超时或回复为空时原样返回输入，不写缓存。

规范化永远不会失败，最差退化为恒等映射。

# 核心类型

  - [Normalizer]：上述流程的实现，相同输入的并发未命中合并为一次委托调用
  - [Delegate] / [DelegateFunc] / [LLMDelegate]：文本进、文本出的外部能力
  - [Cache] / [MemoryCache] / [RedisCache]：规范化结果缓存
  - [Recorder]：命中来源与耗时的指标回调
*/
package normalize
